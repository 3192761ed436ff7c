package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"

	"github.com/theirongolddev/rab/internal/budget"
	"github.com/theirongolddev/rab/internal/cli"
	"github.com/theirongolddev/rab/internal/model"
)

// pageView is everything the HTML page renders.
type pageView struct {
	Title   string
	Summary model.Summary
	Status  budget.Status
	Error   string
	Notice  string
}

func (s *Server) handlePage(c *gin.Context) {
	st := s.svc.Status()
	v := pageView{
		Title:   s.cfg.Title,
		Summary: s.svc.Summary(),
		Status:  st,
		Error:   c.Query("error"),
		Notice:  c.Query("notice"),
	}
	if v.Title == "" {
		v.Title = "RAB Generator"
	}
	if v.Error == "" {
		v.Error = st.LastError
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := page(v).Render(c.Request.Context(), c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func (s *Server) handleFormAdd(c *gin.Context) {
	e, err := bindEntry(c)
	if err == nil {
		_, err = s.svc.AddEntry(e)
	}
	if err != nil {
		_ = c.Error(err)
		redirectHome(c, "error", budget.UserMessage(err))
		return
	}
	redirectHome(c, "", "")
}

func (s *Server) handleFormDelete(c *gin.Context) {
	s.svc.Remove(c.Param("id"))
	redirectHome(c, "", "")
}

func (s *Server) handleFormUpload(c *gin.Context) {
	name, data, err := readUpload(c)
	if err != nil {
		_ = c.Error(err)
		redirectHome(c, "error", budget.UserMessage(err))
		return
	}
	out := s.svc.Upload(c.Request.Context(), name, data)
	if !out.OK() {
		_ = c.Error(out.Err)
		// Busy is not recorded as the service error, so carry it in the URL.
		redirectHome(c, "error", out.Message)
		return
	}
	redirectHome(c, "notice", fmt.Sprintf("%d item berhasil diekstrak dari %s.", len(out.Items), name))
}

func (s *Server) handleFormClearError(c *gin.Context) {
	s.svc.ClearError()
	redirectHome(c, "", "")
}

func redirectHome(c *gin.Context, key, msg string) {
	target := "/"
	if key != "" && msg != "" {
		target += "?" + url.Values{key: {msg}}.Encode()
	}
	c.Redirect(http.StatusSeeOther, target)
}

// page renders the full document.
func page(v pageView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="id"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><style>%s</style></head><body><main>`,
			templ.EscapeString(v.Title), pageCSS); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<header><h1>%s</h1><p class="muted">Buat Rencana Anggaran Biaya secara manual atau unggah file Excel.</p></header>`,
			templ.EscapeString(v.Title)); err != nil {
			return err
		}
		for _, c := range []templ.Component{
			banner(v.Error, v.Notice),
			summaryCards(v.Summary.Totals, v.Summary.Count),
			entryForm(),
			uploadForm(v.Status.Loading, v.Status.AIConfigured),
			itemTable(v.Summary),
		} {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main><script>`+pageJS+`</script></body></html>`)
		return err
	})
}

func banner(errMsg, notice string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		if errMsg != "" {
			fmt.Fprintf(&b, `<div class="alert error" role="alert"><strong>Error:</strong> %s <form method="post" action="/error/clear" class="inline"><button type="submit" aria-label="Tutup">&times;</button></form></div>`,
				templ.EscapeString(errMsg))
		}
		if notice != "" {
			fmt.Fprintf(&b, `<div class="alert notice">%s</div>`, templ.EscapeString(notice))
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func summaryCards(t model.Totals, count int) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		cards := []struct{ label, value string }{
			{"Jumlah Item", cli.FormatNumber(int64(count))},
			{"Total Upah", cli.FormatRupiah(t.Labor)},
			{"Total Bahan", cli.FormatRupiah(t.Material)},
			{"Total Biaya", cli.FormatRupiah(t.Grand)},
		}
		var b strings.Builder
		b.WriteString(`<section class="cards">`)
		for _, c := range cards {
			fmt.Fprintf(&b, `<div class="card"><span class="muted">%s</span><strong>%s</strong></div>`,
				templ.EscapeString(c.label), templ.EscapeString(c.value))
		}
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func entryForm() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section class="panel"><h2>Input Manual</h2>
<form method="post" action="/items" class="grid">
<label>Uraian Pekerjaan<input name="uraian" required placeholder="cth: Pekerjaan Galian Tanah"></label>
<label>Volume<input name="volume" type="number" step="any" required placeholder="10"></label>
<label>Satuan<input name="satuan" required placeholder="m3"></label>
<label>Harga Satuan Upah<input name="hargaUpah" type="number" step="any" placeholder="50000"></label>
<label>Harga Satuan Bahan<input name="hargaBahan" type="number" step="any" placeholder="0"></label>
<button type="submit">Tambah Item</button>
</form></section>`)
		return err
	})
}

func uploadForm(loading, configured bool) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		disabled := ""
		label := "Unggah &amp; Ekstrak"
		if loading {
			disabled = " disabled"
			label = "Memproses file dengan AI&hellip;"
		}
		hint := `File .xlsx atau .xls akan dikonversi dan dibaca oleh AI. Hasilnya menggantikan seluruh item.`
		if !configured {
			hint = `Kunci API belum dikonfigurasi. Set GEMINI_API_KEY sebelum mengunggah.`
		}
		_, err := fmt.Fprintf(w, `<section class="panel"><h2>Unggah File Excel</h2>
<form method="post" action="/upload" enctype="multipart/form-data">
<input type="file" name="file" accept=".xlsx,.xls,.csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,application/vnd.ms-excel"%s required>
<button type="submit"%s>%s</button>
<p class="muted">%s</p>
</form></section>`, disabled, disabled, label, hint)
		return err
	})
}

func itemTable(s model.Summary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="panel"><h2>Rencana Anggaran Biaya</h2><div class="actions"><a href="/v1/export/xlsx">Unduh XLSX</a> <a href="/v1/export/pdf">Unduh PDF</a></div>`)
		b.WriteString(`<table><thead><tr><th>No</th><th>Uraian Pekerjaan</th><th>Volume</th><th>Satuan</th><th>Harga Satuan Upah</th><th>Harga Satuan Bahan</th><th>Jumlah Harga Upah</th><th>Jumlah Harga Bahan</th><th>Aksi</th></tr></thead><tbody>`)
		if len(s.Rows) == 0 {
			b.WriteString(`<tr><td colspan="9" class="empty">Belum ada item. Tambahkan secara manual atau unggah file Excel.</td></tr>`)
		}
		for _, r := range s.Rows {
			fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td class="num">%s</td><td>%s</td><td class="num">%s</td><td class="num">%s</td><td class="num">%s</td><td class="num">%s</td><td><form method="post" action="/items/%s/delete"><button type="submit" class="danger">Hapus</button></form></td></tr>`,
				r.No,
				templ.EscapeString(r.Item.Description),
				templ.EscapeString(cli.FormatVolume(r.Item.Volume)),
				templ.EscapeString(r.Item.Unit),
				cli.FormatRupiah(r.Item.LaborUnitPrice),
				cli.FormatRupiah(r.Item.MaterialUnitPrice),
				cli.FormatRupiah(r.LaborAmount),
				cli.FormatRupiah(r.MaterialAmount),
				url.PathEscape(r.Item.ID),
			)
		}
		b.WriteString(`</tbody>`)
		if len(s.Rows) > 0 {
			fmt.Fprintf(&b, `<tfoot><tr><td colspan="6">Total Biaya</td><td class="num">%s</td><td class="num">%s</td><td></td></tr><tr><td colspan="6">Total Keseluruhan</td><td colspan="2" class="num grand">%s</td><td></td></tr></tfoot>`,
				cli.FormatRupiah(s.Totals.Labor), cli.FormatRupiah(s.Totals.Material), cli.FormatRupiah(s.Totals.Grand))
		}
		b.WriteString(`</table></section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

const pageCSS = `body{font-family:system-ui,sans-serif;background:#f4f5f7;color:#1c1b1a;margin:0}
main{max-width:1200px;margin:0 auto;padding:24px}
.muted{color:#6f6e69}
.panel,.card{background:#fff;border-radius:8px;padding:16px;margin-bottom:16px;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.cards{display:grid;grid-template-columns:repeat(4,1fr);gap:12px}
.card strong{display:block;font-size:1.3em;margin-top:4px}
.grid{display:grid;grid-template-columns:repeat(3,1fr);gap:12px;align-items:end}
label{display:flex;flex-direction:column;font-size:.9em;gap:4px}
input{padding:6px;border:1px solid #ccc;border-radius:4px}
button{padding:6px 12px;border:0;border-radius:4px;background:#3aa99f;color:#fff;cursor:pointer}
button[disabled]{background:#aaa;cursor:wait}
button.danger{background:#d14d41}
table{width:100%;border-collapse:collapse;font-size:.9em}
th,td{border-bottom:1px solid #e6e4d9;padding:6px;text-align:left}
td.num{text-align:right;white-space:nowrap}
td.empty{text-align:center;color:#6f6e69;padding:24px}
tfoot td{font-weight:bold}
.grand{color:#66800b}
.alert{padding:12px;border-radius:6px;margin-bottom:16px}
.alert.error{background:#fde8e6;color:#af3029}
.alert.notice{background:#e8f3ea;color:#66800b}
form.inline{display:inline}
form.inline button{background:none;color:inherit;font-size:1.2em}`

// pageJS reloads the page when another client changes the collection.
const pageJS = `(function(){
var busy=false;
document.querySelectorAll('form').forEach(function(f){f.addEventListener('submit',function(){busy=true;});});
if(!window.EventSource)return;
var es=new EventSource('/v1/stream');
['item_added','item_removed','items_replaced','upload_started','upload_failed'].forEach(function(t){
es.addEventListener(t,function(){if(!busy)location.reload();});});
})();`
