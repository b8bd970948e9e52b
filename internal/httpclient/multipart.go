package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kaia-invest/kaia-core/internal/coerce"
	"github.com/kaia-invest/kaia-core/internal/model"
)

// FilePart is one binary attachment.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// Multipart is a form body. Fields holds already-encoded wire values; nil
// values are skipped so omitted optionals stay omitted.
type Multipart struct {
	Fields model.Record
	Files  []FilePart
}

func (m *Multipart) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(m.Fields))
	for k, v := range m.Fields {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		value, err := formValue(m.Fields[k])
		if err != nil {
			return nil, "", fmt.Errorf("encode field %s: %w", k, err)
		}
		if err := w.WriteField(k, value); err != nil {
			return nil, "", err
		}
	}

	for _, f := range m.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(f.Field), escapeQuotes(filepath.Base(f.Filename))))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func formValue(v any) (string, error) {
	switch v.(type) {
	case map[string]any, model.Record, []any:
		raw, err := json.Marshal(v)
		return string(raw), err
	}
	return coerce.ToStr(v), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
