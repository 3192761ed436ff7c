package extract

import "strings"

const promptHeader = `Anda adalah Quantity Surveyor yang teliti. Baca data CSV hasil ekstraksi sebuah Rencana Anggaran Biaya (RAB) di bawah ini dan ubah menjadi JSON terstruktur.

Data CSV (dipisahkan koma):
---
`

const promptRules = `
---

Aturan:
1. Baris awal bisa berupa header. Tentukan kolom untuk 'uraian' (deskripsi pekerjaan), 'volume', 'satuan', 'hargaUpah' (harga satuan upah) dan 'hargaBahan' (harga satuan bahan). Nama kolom bisa berbeda, cocokkan berdasarkan makna.
2. Setiap baris data adalah satu item pekerjaan. Lewati baris sub-total, total, judul bagian, dan baris kosong.
3. Bila harga upah atau harga bahan tidak tersedia atau kosong, isi 0.
4. volume, hargaUpah dan hargaBahan harus berupa angka. Buang simbol mata uang seperti 'Rp' dan pemisah ribuan.
5. Keluarkan hanya array JSON, tanpa penjelasan dan tanpa markdown.
`

// BuildPrompt embeds the CSV text in the extraction instructions.
func BuildPrompt(csvText string) string {
	var b strings.Builder
	b.Grow(len(promptHeader) + len(csvText) + len(promptRules))
	b.WriteString(promptHeader)
	b.WriteString(strings.TrimRight(csvText, "\r\n"))
	b.WriteString(promptRules)
	return b.String()
}
