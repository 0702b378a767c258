// Package eventtypes renders group titles and locations from event
// metadata. Each event type knows which metadata keys matter; unknown
// types fall back to the default formatter.
package eventtypes

import (
	"fmt"

	"github.com/alexpeters0n/sentry/pkg/models"
)

// Formatter derives display fields from a group's event metadata.
type Formatter interface {
	// Title returns the headline shown for a group.
	Title(metadata map[string]any) string
	// Location returns where the event happened, or "" if unknown.
	Location(metadata map[string]any) string
}

var registry = map[string]Formatter{
	"default": defaultFormatter{},
	"error":   errorFormatter{},
	"csp":     cspFormatter{},
}

// Get returns the formatter for the given event type. Unregistered types
// get the default formatter.
func Get(eventType string) Formatter {
	if f, ok := registry[eventType]; ok {
		return f
	}
	return registry["default"]
}

// Title renders the group's headline using its stored event type.
func Title(g *models.Group) string {
	return Get(g.EventType()).Title(g.EventMetadata())
}

// Location renders where the group's events happen, or "" if unknown.
func Location(g *models.Group) string {
	return Get(g.EventType()).Location(g.EventMetadata())
}

func metaString(metadata map[string]any, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

type defaultFormatter struct{}

func (defaultFormatter) Title(metadata map[string]any) string {
	if title := metaString(metadata, "title"); title != "" {
		return title
	}
	return "<untitled>"
}

func (defaultFormatter) Location(metadata map[string]any) string {
	return metaString(metadata, "location")
}

type errorFormatter struct{}

func (errorFormatter) Title(metadata map[string]any) string {
	typ := metaString(metadata, "type")
	value := metaString(metadata, "value")
	switch {
	case typ != "" && value != "":
		return fmt.Sprintf("%s: %s", typ, truncate(value, 100))
	case typ != "":
		return typ
	case value != "":
		return truncate(value, 100)
	default:
		return "<unlabeled event>"
	}
}

func (errorFormatter) Location(metadata map[string]any) string {
	return metaString(metadata, "filename")
}

type cspFormatter struct{}

func (cspFormatter) Title(metadata map[string]any) string {
	directive := metaString(metadata, "directive")
	uri := metaString(metadata, "uri")
	switch {
	case directive != "" && uri != "":
		return fmt.Sprintf("Blocked %q from %q", directive, uri)
	case directive != "":
		return fmt.Sprintf("Blocked %q", directive)
	default:
		return "<csp>"
	}
}

func (cspFormatter) Location(metadata map[string]any) string {
	return metaString(metadata, "uri")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
