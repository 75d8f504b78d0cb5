package invoice

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

// ширины колонок таблицы, мм (сумма - ширина рабочей области A4)
const (
	colProduct  = 90.0
	colQuantity = 30.0
	colPrice    = 35.0
	colTotal    = 35.0
)

// PDFRenderer печатает Layout в PDF формата A4.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render пишет документ в w. При переполнении страницы таблица переносится на следующую.
func (r *PDFRenderer) Render(l Layout, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(l.Number, true)
	pdf.SetCreator(l.ShopName, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("%s - page %d/{nb}", l.Number, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// шапка
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(210, 105, 30)
	pdf.CellFormat(0, 15, tr(l.ShopName), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(5)

	if l.Tagline != "" {
		pdf.SetFont("Helvetica", "I", 12)
		pdf.CellFormat(0, 10, tr(l.Tagline), "", 1, "C", false, 0, "")
	}
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(255, 248, 220)
	pdf.CellFormat(0, 12, tr("INVOICE No. "+l.Number), "", 1, "C", true, 0, "")
	pdf.Ln(15)

	// клиент и дата
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 10, tr("Client: "+l.Client), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, tr("Date: "+l.Date), "", 1, "", false, 0, "")
	pdf.Ln(15)

	r.tableHeader(pdf, tr)
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range l.Rows {
		pdf.CellFormat(colProduct, 10, tr(row.Product), "1", 0, "", false, 0, "")
		pdf.CellFormat(colQuantity, 10, row.Quantity, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colPrice, 10, row.UnitPrice, "1", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, 10, row.LineTotal, "1", 1, "R", false, 0, "")
	}

	// итог
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(255, 255, 255)
	pdf.CellFormat(colProduct+colQuantity+colPrice, 12, "TOTAL", "1", 0, "R", true, 0, "")
	pdf.SetTextColor(255, 0, 0)
	pdf.CellFormat(colTotal, 12, l.Total, "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.Ln(20)
	pdf.SetFont("Helvetica", "I", 11)
	pdf.SetTextColor(210, 105, 30)
	pdf.CellFormat(0, 10, tr("Thank you for your purchase! Come back soon."), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	if l.Contact != "" {
		pdf.CellFormat(0, 10, tr("Questions or claims: "+l.Contact), "", 1, "C", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrapf(err, "render invoice %s", l.Number)
	}
	return nil
}

func (r *PDFRenderer) tableHeader(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(245, 222, 179)
	pdf.SetTextColor(139, 69, 19)
	pdf.CellFormat(colProduct, 12, tr("Product"), "1", 0, "", true, 0, "")
	pdf.CellFormat(colQuantity, 12, tr("Quantity"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(colPrice, 12, tr("Price"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(colTotal, 12, tr("Total"), "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
}
