package render

import (
	"bytes"
	"context"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"tripsheet/config"
	"tripsheet/models"
)

const (
	pageMargin   = 10.0
	contentWidth = 210.0 - 2*pageMargin

	headerHeight = 41.0
	footerHeight = 31.0
	qrSize       = 26.0

	// banners are rasterised at twice the printed 96 dpi resolution
	pxPerMM = 96.0 / 25.4 * 2
)

type rgb struct{ r, g, b int }

var (
	colorText    = rgb{15, 23, 42}
	colorTitle   = rgb{17, 94, 89}
	colorSection = rgb{51, 65, 85}
	colorLabel   = rgb{71, 85, 105}
	colorSubtle  = rgb{100, 116, 139}
	colorBadge   = rgb{15, 118, 110}
	colorBorder  = rgb{226, 232, 240}
	colorBoxFill = rgb{248, 250, 252}
	colorBoxLine = rgb{203, 213, 225}
)

// Options controls the document's fixed content.
type Options struct {
	Title       string
	Footer      string
	HeaderImage string
	FooterImage string
	Currency    string
	// LinkBase enables a QR code pointing at <LinkBase>/edit/<id>.
	LinkBase string
}

// OptionsFromConfig maps the render section of the configuration.
func OptionsFromConfig(c config.RenderConfig) Options {
	return Options{
		Title:       c.Title,
		Footer:      c.Footer,
		HeaderImage: c.HeaderImage,
		FooterImage: c.FooterImage,
		Currency:    c.Currency,
		LinkBase:    c.LinkBase,
	}
}

// PDF renders itineraries as A4 portrait documents.
type PDF struct {
	opts   Options
	header []byte
	footer []byte
}

// NewPDF prepares the banner images once; a configured image that cannot be
// read is an error.
func NewPDF(opts Options) (*PDF, error) {
	p := &PDF{opts: opts}
	var err error
	if p.header, err = loadBanner(opts.HeaderImage, headerHeight); err != nil {
		return nil, err
	}
	if p.footer, err = loadBanner(opts.FooterImage, footerHeight); err != nil {
		return nil, err
	}
	return p, nil
}

func loadBanner(path string, heightMM float64) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, &Error{Op: "load banner", Err: err}
	}
	// crop to the banner's aspect ratio, like object-fit: cover
	w, h := bannerPixels(heightMM)
	img = imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, &Error{Op: "encode banner", Err: err}
	}
	return buf.Bytes(), nil
}

// bannerPixels is the pixel size of a full-width banner heightMM tall.
func bannerPixels(heightMM float64) (int, int) {
	width := contentWidth * pxPerMM
	return int(math.Round(width)), int(math.Round(heightMM * pxPerMM))
}

func (p *PDF) Render(ctx context.Context, rec models.ItineraryRecord, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return &Error{Op: "render", Err: err}
	}
	doc, err := p.build(rec)
	if err != nil {
		return err
	}
	if err := doc.Output(w); err != nil {
		return &Error{Op: "write", Err: err}
	}
	return nil
}

func (p *PDF) build(rec models.ItineraryRecord) (*gofpdf.Fpdf, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(Filename(rec), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if p.header != nil {
		p.banner(pdf, "header", p.header, headerHeight)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 16)
	setText(pdf, colorTitle)
	pdf.CellFormat(0, 10, tr(strings.ToUpper(p.opts.Title)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	qr, err := p.qr(rec)
	if err != nil {
		return nil, err
	}
	p.tripDetails(pdf, tr, rec, qr)
	p.schedule(pdf, tr, rec.Days)
	p.footerBlock(pdf, tr)

	if err := pdf.Error(); err != nil {
		return nil, &Error{Op: "layout", Err: err}
	}
	return pdf, nil
}

func (p *PDF) banner(pdf *gofpdf.Fpdf, name string, data []byte, height float64) {
	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	y := pdf.GetY()
	pdf.ImageOptions(name, pageMargin, y, contentWidth, height, false, opts, 0, "")
	pdf.SetY(y + height)
}

func (p *PDF) qr(rec models.ItineraryRecord) ([]byte, error) {
	if p.opts.LinkBase == "" || rec.ID == "" {
		return nil, nil
	}
	link := strings.TrimRight(p.opts.LinkBase, "/") + "/edit/" + rec.ID
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, &Error{Op: "qr code", Err: err}
	}
	return png, nil
}

func (p *PDF) tripDetails(pdf *gofpdf.Fpdf, tr func(string) string, rec models.ItineraryRecord, qr []byte) {
	d := rec.Details
	hotel := d.HotelName
	if strings.TrimSpace(hotel) == "" {
		hotel = "TBD"
	}
	name := d.CustomerName
	if name == "" {
		name = rec.CustomerName
	}
	rows := [][2]string{
		{"Customer Name", name},
		{"Total Persons", number(d.Persons)},
		{"Hotel Category", string(d.HotelCategory)},
		{"Vehicle", string(d.Vehicle)},
		{"Rooms", number(d.Rooms)},
		{"Hotel", hotel},
		{"Total Cost", p.opts.Currency + number(d.FinalCost)},
	}

	const pad, rowH, headH = 5.0, 6.0, 10.0
	gridW := contentWidth - 2*pad
	if qr != nil {
		gridW -= qrSize + pad
	}
	colW := gridW / 2
	gridRows := (len(rows) + 1) / 2
	boxH := pad + headH + float64(gridRows)*rowH + pad
	if qr != nil && boxH < pad+headH+qrSize+pad {
		boxH = pad + headH + qrSize + pad
	}

	top := pdf.GetY()
	setFill(pdf, colorBoxFill)
	setDraw(pdf, colorBoxLine)
	pdf.SetLineWidth(0.3)
	pdf.Rect(pageMargin, top, contentWidth, boxH, "FD")

	pdf.SetXY(pageMargin+pad, top+pad)
	pdf.SetFont("Helvetica", "B", 13)
	setText(pdf, colorSection)
	pdf.CellFormat(contentWidth-2*pad, 7, "Trip Details", "", 1, "L", false, 0, "")
	setDraw(pdf, colorBorder)
	pdf.Line(pageMargin+pad, top+pad+8, pageMargin+contentWidth-pad, top+pad+8)

	for i, row := range rows {
		x := pageMargin + pad + float64(i%2)*colW
		y := top + pad + headH + float64(i/2)*rowH
		pdf.SetXY(x, y)
		pdf.SetFont("Helvetica", "B", 10)
		setText(pdf, colorLabel)
		label := tr(row[0] + ": ")
		lw := pdf.GetStringWidth(label)
		pdf.CellFormat(lw, rowH, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		setText(pdf, colorText)
		pdf.CellFormat(colW-lw, rowH, fit(pdf, tr(row[1]), colW-lw), "", 0, "L", false, 0, "")
	}

	if qr != nil {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
		pdf.ImageOptions("qr", pageMargin+contentWidth-pad-qrSize, top+pad+headH-2, qrSize, qrSize, false, opts, 0, "")
	}
	pdf.SetY(top + boxH + 6)
}

func (p *PDF) schedule(pdf *gofpdf.Fpdf, tr func(string) string, days []models.DayEntry) {
	pdf.SetFont("Helvetica", "B", 13)
	setText(pdf, colorSection)
	pdf.CellFormat(0, 8, "Day-wise Schedule", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	const pad, badgeH, lineH = 4.0, 6.0, 5.0
	textW := contentWidth - 2*pad
	_, pageH := pdf.GetPageSize()
	bottom := pageH - pageMargin
	headH := pad + badgeH + 2

	for i, day := range days {
		pdf.SetFont("Helvetica", "", 10)
		lines := descriptionLines(pdf, tr(day.Description), textW)
		cardH := headH + float64(len(lines))*lineH + pad

		// a card that fits on one page is never split; a taller one starts
		// on a new page only if not even its heading and first line fit here
		switch {
		case pdf.GetY()+cardH <= bottom:
		case cardH <= bottom-pageMargin:
			pdf.AddPage()
		case pdf.GetY()+headH+lineH+pad > bottom:
			pdf.AddPage()
		}
		top := pdf.GetY()

		badge := "Day " + strconv.Itoa(models.DayNumber(i))
		pdf.SetFont("Helvetica", "B", 8)
		badgeW := pdf.GetStringWidth(badge) + 6
		setFill(pdf, colorBadge)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(pageMargin+pad, top+pad)
		pdf.CellFormat(badgeW, badgeH, badge, "", 0, "C", true, 0, "")

		pdf.SetFont("Helvetica", "B", 11)
		setText(pdf, colorText)
		pdf.SetX(pageMargin + pad + badgeW + 2)
		pdf.CellFormat(textW-badgeW-2, badgeH, fit(pdf, tr(day.DisplayTitle()), textW-badgeW-2), "", 0, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		setText(pdf, colorSection)
		y := top + headH
		for _, line := range lines {
			if y+lineH+pad > bottom {
				cardBorder(pdf, top, y+pad)
				pdf.AddPage()
				top = pdf.GetY()
				y = top + pad
				pdf.SetFont("Helvetica", "", 10)
				setText(pdf, colorSection)
			}
			pdf.SetXY(pageMargin+pad, y)
			pdf.CellFormat(textW, lineH, line, "", 0, "L", false, 0, "")
			y += lineH
		}
		cardBorder(pdf, top, y+pad)
		pdf.SetY(y + pad + 4)
	}
}

// cardBorder outlines one page's segment of a day card.
func cardBorder(pdf *gofpdf.Fpdf, top, bottom float64) {
	setDraw(pdf, colorBorder)
	pdf.SetLineWidth(0.3)
	pdf.Rect(pageMargin, top, contentWidth, bottom-top, "D")
}

func (p *PDF) footerBlock(pdf *gofpdf.Fpdf, tr func(string) string) {
	_, pageH := pdf.GetPageSize()
	need := 14.0
	if p.footer != nil {
		need += footerHeight
	}
	if pdf.GetY()+need > pageH-pageMargin {
		pdf.AddPage()
	}
	pdf.Ln(4)
	if p.footer != nil {
		p.banner(pdf, "footer", p.footer, footerHeight)
	}
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, colorSubtle)
	pdf.CellFormat(0, 5, tr(p.opts.Footer), "", 1, "C", false, 0, "")
}

// descriptionLines wraps text to width, keeping the author's line breaks.
func descriptionLines(pdf *gofpdf.Fpdf, text string, width float64) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if para == "" {
			out = append(out, "")
			continue
		}
		for _, l := range pdf.SplitLines([]byte(para), width) {
			out = append(out, string(l))
		}
	}
	return out
}

// fit truncates s with an ellipsis so it stays within width.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func setText(pdf *gofpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setFill(pdf *gofpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setDraw(pdf *gofpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
