package output

import (
	"bytes"
	"sync"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/primes/pkg/primes/counter"
)

// DefaultTemplate reproduces the plain format.
const DefaultTemplate = `{{.Message}}
`

// TemplateFormatter executes a user-supplied text/template against the Result.
type TemplateFormatter struct {
	templateStr string
	template    *template.Template
	mu          sync.Mutex
}

// NewTemplateFormatter creates a formatter for templateStr.
// An empty string selects DefaultTemplate.
func NewTemplateFormatter(templateStr string) *TemplateFormatter {
	if templateStr == "" {
		templateStr = DefaultTemplate
	}
	return &TemplateFormatter{templateStr: templateStr}
}

// SetTemplate replaces the template; it is compiled on the next Format.
func (f *TemplateFormatter) SetTemplate(templateStr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templateStr = templateStr
	f.template = nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// {{comma .Primes}} -> 1,229
		"comma": func(n interface{}) string {
			switch v := n.(type) {
			case int32:
				return humanize.Comma(int64(v))
			case int64:
				return humanize.Comma(v)
			case int:
				return humanize.Comma(int64(v))
			default:
				return ""
			}
		},
		// {{seconds .CPUSeconds}} -> printf %g rendering
		"seconds": counter.FormatSeconds,
		// {{date .StartedAt "2006-01-02"}}
		"date": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		// {{ago .StartedAt}} -> "3 minutes ago"
		"ago": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return humanize.Time(t)
		},
		"duration": FormatDuration,
	}
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.template == nil {
		tmpl, err := template.New("output").Funcs(templateFuncs()).Parse(f.templateStr)
		if err != nil {
			return err
		}
		f.template = tmpl
	}

	return f.template.Execute(w, r)
}

func init() {
	Register("template", func() Formatter {
		return NewTemplateFormatter(DefaultTemplate)
	})
}

var _ Formatter = (*TemplateFormatter)(nil)
