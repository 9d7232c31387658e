// Package export turns an investigation into a Word document
package export

import (
	"bytes"
	"fmt"

	"baliance.com/gooxml/document"
	"baliance.com/gooxml/measurement"

	"github.com/linesmerrill/police-investigations-api/models"
)

// ContentType is the media type of the exported document
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const reportHeading = "Relatório de Investigação Policial"

// Block is one paragraph of the exported document
type Block struct {
	Text       string
	Bold       bool
	Size       measurement.Distance
	SpaceAfter measurement.Distance
}

// Blocks lays out the document body in order: heading, case title, status
// and one line per timeline entry. Location, images, priority and video are
// not part of the report.
func Blocks(inv models.Investigation) []Block {
	blocks := []Block{
		{Text: reportHeading, Bold: true, Size: 18 * measurement.Point, SpaceAfter: 20 * measurement.Point},
		{Text: inv.Title, Bold: true, Size: 14 * measurement.Point, SpaceAfter: 15 * measurement.Point},
		{Text: "Status: " + statusLabel(inv.Status), Bold: true, Size: 12 * measurement.Point, SpaceAfter: 10 * measurement.Point},
	}
	for _, e := range inv.TimelineEntries {
		blocks = append(blocks, Block{
			Text:       fmt.Sprintf("%s - %s", e.Time, e.Description),
			Size:       12 * measurement.Point,
			SpaceAfter: 10 * measurement.Point,
		})
	}
	return blocks
}

func statusLabel(s models.Status) string {
	if s == models.StatusResolved {
		return "Resolvido"
	}
	return "Em Andamento"
}

// Render serializes blocks into a docx. On failure no bytes are returned.
func Render(blocks []Block) ([]byte, error) {
	doc := document.New()
	for _, b := range blocks {
		para := doc.AddParagraph()
		para.Properties().Spacing().SetAfter(b.SpaceAfter)
		run := para.AddRun()
		run.Properties().SetBold(b.Bold)
		run.Properties().SetSize(b.Size)
		run.AddText(b.Text)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return buf.Bytes(), nil
}

// Export renders inv and returns the document with its download filename
func Export(inv models.Investigation) ([]byte, string, error) {
	body, err := Render(Blocks(inv))
	if err != nil {
		return nil, "", err
	}
	return body, Filename(inv.Title), nil
}
