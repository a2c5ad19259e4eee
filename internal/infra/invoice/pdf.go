package invoice

import (
	"bytes"
	"fmt"

	"shop/internal/domain/model"

	"github.com/go-pdf/fpdf"
)

const separator = "-----------------------"

// 埋め込みフォントのファミリー名
const utf8Family = "invoice"

// PDFRenderer は注文のスナップショットから請求書PDFを作る。
// 商品テーブルは参照しない。
//
// 標準の Helvetica は cp1252 しか持たないので、文字列は cp1252 に変換して書く
// （変換できない文字は "."）。日本語などを出すときは TrueType フォントを渡す。
type PDFRenderer struct {
	font     []byte
	compress bool
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{compress: true}
}

// NewPDFRendererWithFont は UTF-8 の TrueType フォントで描く。
func NewPDFRendererWithFont(ttf []byte) *PDFRenderer {
	return &PDFRenderer{font: ttf, compress: true}
}

func (r *PDFRenderer) Render(order model.Order) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle("Invoice "+order.ID, true)
	if !order.CreatedAt.IsZero() {
		pdf.SetCreationDate(order.CreatedAt)
	}

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if len(r.font) > 0 {
		pdf.AddUTF8FontFromBytes(utf8Family, "", r.font)
		family = utf8Family
		tr = func(s string) string { return s }
	}
	pdf.AddPage()

	pdf.SetFont(family, "U", 26)
	pdf.CellFormat(0, 14, "Invoice", "", 1, "L", false, 0, "")

	pdf.SetFont(family, "", 10)
	pdf.CellFormat(0, 6, tr("Order "+order.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, separator, "", 1, "L", false, 0, "")

	pdf.SetFont(family, "", 14)
	for _, l := range order.Lines {
		line := fmt.Sprintf("%s - %d x $%s", l.Title, l.Quantity, l.Price.StringFixed(2))
		pdf.CellFormat(0, 8, tr(line), "", 1, "L", false, 0, "")
	}

	pdf.CellFormat(0, 8, separator, "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 20)
	pdf.CellFormat(0, 10, "Total Price: $"+order.Total().StringFixed(2), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", order.ID, err)
	}
	return buf.Bytes(), nil
}
