package bank

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Endpoint is where the display process listens.
type Endpoint struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns host:port, or "" when the endpoint is unset.
func (e Endpoint) Address() string {
	if e.Host == "" && e.Port == 0 {
		return ""
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Document is a question file: the bank plus the display endpoint.
type Document struct {
	Display    Endpoint      `yaml:"display"`
	Teams      []string      `yaml:"teams"`
	Categories []RawCategory `yaml:"categories"`
}

func (d *Document) Raw() Raw {
	return Raw{Teams: d.Teams, Categories: d.Categories}
}

// ReadDocument decodes a question file, picking the format from its
// extension: .yaml/.yml, or .xml in the grossesquiz layout.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return DecodeXML(data)
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return nil, newLoadError(MalformedSchema, "unsupported document type %q", filepath.Ext(path))
	}
}

func DecodeYAML(data []byte) (*Document, error) {
	var d Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, newLoadError(MalformedSchema, "yaml: %s", err)
	}
	return &d, nil
}

type xmlDocument struct {
	XMLName       xml.Name `xml:"grossesquiz"`
	Configuration struct {
		Host string `xml:"displayserverhost"`
		Port int    `xml:"displayserverport"`
	} `xml:"configuration"`
	Teams      []string      `xml:"teams>team"`
	Categories []xmlCategory `xml:"questions>qcategory"`
}

type xmlCategory struct {
	Name      string        `xml:"name,attr"`
	Questions []xmlQuestion `xml:"question"`
}

type xmlQuestion struct {
	Value         int    `xml:"value,attr"`
	HasTime       string `xml:"hastime,attr"`
	TimeAllowance int    `xml:"timeallowance,attr"`
	Text          string `xml:"text"`
}

func DecodeXML(data []byte) (*Document, error) {
	var x xmlDocument
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, newLoadError(MalformedSchema, "xml: %s", err)
	}

	d := &Document{
		Display: Endpoint{Host: x.Configuration.Host, Port: x.Configuration.Port},
		Teams:   x.Teams,
	}
	for _, c := range x.Categories {
		rc := RawCategory{Name: c.Name}
		for _, q := range c.Questions {
			rc.Questions = append(rc.Questions, RawQuestion{
				Value:         q.Value,
				HasTimer:      strings.EqualFold(strings.TrimSpace(q.HasTime), "true"),
				TimeAllowance: q.TimeAllowance,
				Text:          strings.TrimSpace(q.Text),
			})
		}
		d.Categories = append(d.Categories, rc)
	}
	return d, nil
}
