// Package document renders the templated email and memo text for the two
// records-authority workflows: PID registration and PID deactivation. Output
// is plain text handed to the browser client verbatim; page layout of the
// printed memo is the client's concern.
package document

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"device-inventory-backend/config"
	"device-inventory-backend/internal/model"
	"device-inventory-backend/internal/pid"
)

// Kinds of documents that can be generated for a device.
const (
	KindRegistration = "registration"
	KindDeactivation = "deactivation"
)

// Document is a rendered email plus the memo text that accompanies it.
type Document struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Memo    string `json:"memo"`
}

type templateData struct {
	Agency           string
	RecordsAuthority string
	ContactEmail     string
	Date             string
	SerialNumber     string
	PIDNumber        string
	ExpectedPID      string
	AssetID          string
	DeviceType       string
	Officer          string
}

var registrationSubject = template.Must(template.New("registration_subject").Parse(
	`PID Registration Request - Serial {{.SerialNumber}}`))

var registrationBody = template.Must(template.New("registration_body").Parse(
	`To {{.RecordsAuthority}},

{{.Agency}} requests registration of the following device identifier:

    Serial Number: {{.SerialNumber}}
    Requested PID: {{.ExpectedPID}}
    Asset ID:      {{.AssetID}}
    Device Type:   {{.DeviceType}}

Please confirm registration to {{.ContactEmail}}.

The attached memo documents this request for our records.
`))

var registrationMemo = template.Must(template.New("registration_memo").Parse(
	`{{.Agency}}
MEMORANDUM

Date:    {{.Date}}
To:      {{.RecordsAuthority}}
Subject: PID Registration - Serial {{.SerialNumber}}

This memo documents the request to register PID {{.ExpectedPID}} for the
device with serial number {{.SerialNumber}} (asset {{.AssetID}}, type
{{.DeviceType}}){{if .Officer}}, assigned to {{.Officer}}{{end}}.

The requested PID was derived from the serial number under the standing
identifier convention.
`))

var deactivationSubject = template.Must(template.New("deactivation_subject").Parse(
	`PID Deactivation Request - {{.PIDNumber}}`))

var deactivationBody = template.Must(template.New("deactivation_body").Parse(
	`To {{.RecordsAuthority}},

{{.Agency}} requests deactivation of the following device identifier:

    PID:           {{.PIDNumber}}
    Serial Number: {{if .SerialNumber}}{{.SerialNumber}}{{else}}(not on file){{end}}
    Asset ID:      {{.AssetID}}

The device has been removed from service. Please confirm deactivation to
{{.ContactEmail}}.
`))

var deactivationMemo = template.Must(template.New("deactivation_memo").Parse(
	`{{.Agency}}
MEMORANDUM

Date:    {{.Date}}
To:      {{.RecordsAuthority}}
Subject: PID Deactivation - {{.PIDNumber}}

This memo documents the request to deactivate PID {{.PIDNumber}} held by the
device with asset ID {{.AssetID}}{{if .SerialNumber}} and serial number
{{.SerialNumber}}{{end}}. The device is no longer in service.
`))

// Generate renders the document of the given kind for a device.
func Generate(kind string, device model.Device, cfg *config.DocumentsConfig, now time.Time) (Document, error) {
	data := templateData{
		Agency:           cfg.AgencyName,
		RecordsAuthority: cfg.RecordsAuthority,
		ContactEmail:     cfg.ContactEmail,
		Date:             now.Format("January 2, 2006"),
		SerialNumber:     device.SerialNumber,
		PIDNumber:        device.PIDNumber,
		ExpectedPID:      pid.ExpectedFromSerial(device.SerialNumber),
		AssetID:          device.AssetID,
		DeviceType:       device.DeviceType,
		Officer:          device.Officer,
	}

	switch kind {
	case KindRegistration:
		if data.ExpectedPID == "" {
			return Document{}, fmt.Errorf("cannot derive a PID from serial %q", device.SerialNumber)
		}
		return render(data, registrationSubject, registrationBody, registrationMemo)
	case KindDeactivation:
		if device.PIDNumber == "" {
			return Document{}, fmt.Errorf("device %s has no PID to deactivate", device.ID)
		}
		return render(data, deactivationSubject, deactivationBody, deactivationMemo)
	default:
		return Document{}, fmt.Errorf("unknown document kind %q", kind)
	}
}

func render(data templateData, subject, body, memo *template.Template) (Document, error) {
	var doc Document
	for _, part := range []struct {
		tmpl *template.Template
		out  *string
	}{
		{subject, &doc.Subject},
		{body, &doc.Body},
		{memo, &doc.Memo},
	} {
		var buf bytes.Buffer
		if err := part.tmpl.Execute(&buf, data); err != nil {
			return Document{}, fmt.Errorf("failed to render %s: %w", part.tmpl.Name(), err)
		}
		*part.out = buf.String()
	}
	return doc, nil
}
