// Package xmp extracts the photo metadata the gallery cares about (creation
// date, title and keywords) from the XMP packet embedded in an image file.
package xmp

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// ErrNoXMP is returned when the file carries no XMP packet.
var ErrNoXMP = errors.New("no XMP metadata found")

// tiffTagXMP is the TIFF tag holding the XMP packet.
const tiffTagXMP = 700

// Metadata is what the ingestion pipeline reads from a photo.
type Metadata struct {
	CreateDate string
	Title      *string
	Tags       []string
	// Raw is the XMP packet as found in the file.
	Raw []byte
}

type xmpMeta struct {
	RDF struct {
		Descriptions []description `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Description"`
	} `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# RDF"`
}

type description struct {
	CreateDateAttr string `xml:"http://ns.adobe.com/xap/1.0/ CreateDate,attr"`
	CreateDate     string `xml:"http://ns.adobe.com/xap/1.0/ CreateDate"`
	Title          *struct {
		Items []string `xml:"Alt>li"`
	} `xml:"http://purl.org/dc/elements/1.1/ title"`
	Subject *struct {
		Items []string `xml:"Bag>li"`
	} `xml:"http://purl.org/dc/elements/1.1/ subject"`
}

func (d description) createDate() string {
	if d.CreateDate != "" {
		return strings.TrimSpace(d.CreateDate)
	}
	return strings.TrimSpace(d.CreateDateAttr)
}

// Extract finds the XMP packet in data and parses it. TIFF files are read
// through their tag 700; any other format is scanned for an embedded
// x:xmpmeta element.
func Extract(data []byte) (*Metadata, error) {
	packet, err := Packet(data)
	if err != nil {
		return nil, err
	}
	return Parse(packet)
}

// Packet returns the raw XMP packet of data without parsing it.
func Packet(data []byte) ([]byte, error) {
	packet, err := tiffPacket(data)
	if err != nil {
		return nil, err
	}
	if packet == nil {
		packet = scanPacket(data)
	}
	if packet == nil {
		return nil, ErrNoXMP
	}
	return packet, nil
}

// Parse reads the first rdf:Description that carries xmp:CreateDate.
func Parse(packet []byte) (*Metadata, error) {
	var meta xmpMeta
	if err := xml.Unmarshal(packet, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse XMP data: %w", err)
	}

	for _, d := range meta.RDF.Descriptions {
		created := d.createDate()
		if created == "" {
			continue
		}

		m := &Metadata{CreateDate: created, Tags: []string{}, Raw: packet}
		if d.Title != nil && len(d.Title.Items) > 0 {
			title := strings.TrimSpace(d.Title.Items[0])
			m.Title = &title
		}
		if d.Subject != nil {
			for _, tag := range d.Subject.Items {
				if tag = strings.TrimSpace(tag); tag != "" {
					m.Tags = append(m.Tags, tag)
				}
			}
		}
		return m, nil
	}

	return nil, fmt.Errorf("couldn't find a single valid rdf:Description element in XMP metadata: %w", ErrNoXMP)
}

// tiffPacket returns the XMP tag of the first IFD, nil when data is not a
// TIFF file or the tag is absent.
func tiffPacket(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, nil
	}

	var order binary.ByteOrder
	switch {
	case bytes.HasPrefix(data, []byte("II*\x00")):
		order = binary.LittleEndian
	case bytes.HasPrefix(data, []byte("MM\x00*")):
		order = binary.BigEndian
	default:
		return nil, nil
	}

	ifd := int(order.Uint32(data[4:8]))
	if ifd+2 > len(data) {
		return nil, fmt.Errorf("tiff: IFD offset %d out of range", ifd)
	}

	count := int(order.Uint16(data[ifd : ifd+2]))
	for i := 0; i < count; i++ {
		entry := ifd + 2 + i*12
		if entry+12 > len(data) {
			return nil, fmt.Errorf("tiff: truncated IFD entry %d", i)
		}
		if order.Uint16(data[entry:entry+2]) != tiffTagXMP {
			continue
		}

		// BYTE and UNDEFINED are the only types used for XMP; both are
		// one byte per value.
		n := int(order.Uint32(data[entry+4 : entry+8]))
		if n <= 4 {
			return data[entry+8 : entry+8+n], nil
		}
		offset := int(order.Uint32(data[entry+8 : entry+12]))
		if offset < 0 || offset+n > len(data) {
			return nil, fmt.Errorf("tiff: XMP tag points outside the file")
		}
		return data[offset : offset+n], nil
	}

	return nil, nil
}

func scanPacket(data []byte) []byte {
	start := bytes.Index(data, []byte("<x:xmpmeta"))
	if start < 0 {
		return nil
	}
	closing := []byte("</x:xmpmeta>")
	end := bytes.Index(data[start:], closing)
	if end < 0 {
		return nil
	}
	return data[start : start+end+len(closing)]
}
