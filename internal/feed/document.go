// Package feed parses the source RSS document, exposes its items, and
// reassembles the cleaned output document. Parsing keeps the full XML tree so
// channel metadata and item children round-trip verbatim.
package feed

import (
	"fmt"

	"github.com/beevik/etree"

	"posterfeed/internal/domain/entity"
)

// Namespace declarations reproduced exactly on the output document for
// downstream consumer compatibility.
var outputNamespaces = []struct{ key, value string }{
	{"xmlns:dc", "http://purl.org/dc/elements/1.1/"},
	{"xmlns:atom", "http://www.w3.org/2005/Atom"},
	{"xmlns:letterboxd", "https://letterboxd.com"},
	{"xmlns:tmdb", "https://themoviedb.org"},
}

// Document wraps a parsed RSS document.
type Document struct {
	doc     *etree.Document
	channel *etree.Element
}

// Parse reads an RSS document from raw bytes. It fails when the bytes are not
// well-formed XML or the document has no channel element; per the error
// policy a parse failure is fatal for the whole run.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidFeed, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, entity.ErrInvalidFeed
	}

	channel := root.SelectElement("channel")
	if channel == nil {
		return nil, entity.ErrNoChannel
	}

	return &Document{doc: doc, channel: channel}, nil
}

// Items returns the item elements in document order.
func (d *Document) Items() []*etree.Element {
	return d.channel.SelectElements("item")
}

// ItemFields extracts the fields the pipeline makes decisions on from an item
// element. Missing children yield empty strings.
func ItemFields(item *etree.Element) entity.FeedItem {
	return entity.FeedItem{
		Title:       childText(item, "title"),
		Link:        childText(item, "link"),
		GUID:        childText(item, "guid"),
		Description: childText(item, "description"),
	}
}

// Reassemble builds the cleaned output document. Channel metadata is copied
// verbatim except item children. Each item carrying a guid is re-emitted with
// all of its original children except description, then a CDATA-wrapped
// description: the cleaned value when present in the map, the original raw
// description otherwise. Items without a guid are dropped.
func (d *Document) Reassemble(cleaned map[string]string) ([]byte, error) {
	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	rss := out.CreateElement("rss")
	rss.CreateAttr("version", "2.0")
	for _, ns := range outputNamespaces {
		rss.CreateAttr(ns.key, ns.value)
	}

	channel := rss.CreateElement("channel")

	for _, child := range d.channel.ChildElements() {
		if child.Tag == "item" {
			continue
		}
		channel.AddChild(child.Copy())
	}

	for _, item := range d.Items() {
		guid := childText(item, "guid")
		if guid == "" {
			continue
		}

		outItem := channel.CreateElement("item")
		for _, child := range item.ChildElements() {
			if child.Space == "" && child.Tag == "description" {
				continue
			}
			outItem.AddChild(child.Copy())
		}

		desc := outItem.CreateElement("description")
		if text, ok := cleaned[guid]; ok {
			desc.CreateCData(text)
		} else {
			desc.CreateCData(childText(item, "description"))
		}
	}

	data, err := out.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize cleaned feed: %w", err)
	}
	return data, nil
}

// childText returns the text of the first non-namespaced child with the given
// tag, or "".
func childText(el *etree.Element, tag string) string {
	for _, child := range el.ChildElements() {
		if child.Space == "" && child.Tag == tag {
			return child.Text()
		}
	}
	return ""
}
