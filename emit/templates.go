package emit

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template data structures
type structData struct {
	Name   string
	Small  bool
	Fields []fieldData
}

type fieldData struct {
	Ident      string
	Type       string
	Serializer string
}

type enumData struct {
	Name     string
	Variants []string
}

type unionData struct {
	Name     string
	Variants []variantData
}

type variantData struct {
	Name string
	Type string
}

type packetData struct {
	Name       string
	ID         int
	Compressed bool
	MaxSize    int
	Category   string
}

type caseData struct {
	Name     string
	Fixtures []fixtureData
}

type fixtureData struct {
	PacketID int
	Debug    string
	Literal  string
}

// TemplateManager holds the parsed Rust templates, one per file
type TemplateManager struct {
	templates map[string]*template.Template
}

// NewTemplateManager parses every embedded template
func NewTemplateManager() (*TemplateManager, error) {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
	}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".tmpl")
		content, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, err
		}

		tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		tm.templates[name] = tmpl
	}

	return tm, nil
}

// GetTemplate returns a template by name
func (tm *TemplateManager) GetTemplate(name string) (*template.Template, bool) {
	tmpl, exists := tm.templates[name]
	return tmpl, exists
}

// ExecuteTemplate executes a template with the given data
func (tm *TemplateManager) ExecuteTemplate(name string, data any) (string, error) {
	tmpl, exists := tm.GetTemplate(name)
	if !exists {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

var templateManager *TemplateManager

func init() {
	var err error
	templateManager, err = NewTemplateManager()
	if err != nil {
		panic(err)
	}
}
