package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ilkoid/saigon-traffic/pkg/reports"
)

// timestampLayouts перечисляет форматы поля timestamp: RFC3339 и значение <input type="datetime-local">.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// cityLocation: часовой пояс для timestamp без смещения.
var cityLocation = time.FixedZone("ICT", 7*60*60)

// reportForm: поля отчёта из multipart формы или JSON, приведённые к строкам.
type reportForm struct {
	values map[string]string
	image  []byte
	err    error
}

// readReportForm читает тело POST запроса.
//
// multipart/form-data: текстовые поля и необязательный файл "image".
// application/json: объект с полями отчёта (без фото).
func readReportForm(r *http.Request, maxBytes int64) (*reportForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	form := &reportForm{values: map[string]string{}}

	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, &reports.ValidationError{Field: "body", Reason: err.Error()}
		}
		for key, vals := range r.MultipartForm.Value {
			if len(vals) > 0 {
				form.values[key] = strings.TrimSpace(vals[0])
			}
		}
		file, _, err := r.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return nil, &reports.ValidationError{Field: "image", Reason: err.Error()}
		default:
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
			if err != nil {
				return nil, &reports.ValidationError{Field: "image", Reason: err.Error()}
			}
			if int64(len(data)) > maxBytes {
				return nil, &reports.ValidationError{Field: "image", Reason: "file is too large"}
			}
			form.image = data
		}
	default:
		var raw map[string]any
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBytes))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, &reports.ValidationError{Field: "body", Reason: "expected JSON object or multipart form"}
		}
		for key, v := range raw {
			if v == nil {
				continue
			}
			form.values[key] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return form, nil
}

func (f *reportForm) stringField(name string) string {
	return f.values[name]
}

func (f *reportForm) floatField(name string) float64 {
	raw := f.values[name]
	if raw == "" || f.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		f.err = &reports.ValidationError{Field: name, Reason: "must be a number"}
	}
	return v
}

func (f *reportForm) intField(name string) int {
	raw := f.values[name]
	if raw == "" || f.err != nil {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		f.err = &reports.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return v
}

func (f *reportForm) boolField(name string) bool {
	raw := f.values[name]
	if raw == "" || f.err != nil {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		f.err = &reports.ValidationError{Field: name, Reason: "must be true or false"}
	}
	return v
}

func (f *reportForm) timeField(name string) time.Time {
	raw := f.values[name]
	if raw == "" || f.err != nil {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, cityLocation); err == nil {
			return t
		}
	}
	f.err = &reports.ValidationError{Field: name, Reason: "must be RFC3339 or YYYY-MM-DDTHH:MM"}
	return time.Time{}
}

// hazard собирает опасность из формы.
func (f *reportForm) hazard() (reports.Hazard, error) {
	h := reports.Hazard{
		Lat:       f.floatField("lat"),
		Lng:       f.floatField("lng"),
		Cause:     f.stringField("cause"),
		Severity:  f.intField("severity"),
		Notes:     f.stringField("notes"),
		Timestamp: f.timeField("timestamp"),
	}
	return h, f.err
}

// incident собирает происшествие из формы.
func (f *reportForm) incident() (reports.Incident, error) {
	i := reports.Incident{
		Lat:         f.floatField("lat"),
		Lng:         f.floatField("lng"),
		Description: f.stringField("description"),
		Type:        f.stringField("type"),
		Impact:      f.intField("impact"),
		Timestamp:   f.timeField("timestamp"),
		Verified:    f.boolField("verified"),
	}
	return i, f.err
}
