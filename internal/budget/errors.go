package budget

import (
	"errors"

	"github.com/theirongolddev/rab/internal/extract"
	"github.com/theirongolddev/rab/internal/ingest"
	"github.com/theirongolddev/rab/internal/model"
)

// ErrBusy is returned when an upload is already in flight.
var ErrBusy = errors.New("budget: an upload is already in progress")

// ErrorKind groups failures the way they are reported to the user.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindConfig
	KindIngestion
	KindExtraction
	KindValidation
	KindBusy
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindIngestion:
		return "ingestion"
	case KindExtraction:
		return "extraction"
	case KindValidation:
		return "validation"
	case KindBusy:
		return "busy"
	default:
		return "none"
	}
}

// Classify maps an error to its kind. Anything unrecognised on the upload
// path counts as an extraction failure.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.Is(err, extract.ErrMissingAPIKey):
		return KindConfig
	case errors.Is(err, model.ErrMissingField):
		return KindValidation
	case errors.Is(err, ingest.ErrUnsupportedType),
		errors.Is(err, ingest.ErrUnreadable),
		errors.Is(err, ingest.ErrTooLarge):
		return KindIngestion
	default:
		return KindExtraction
	}
}

// Messages shown to the user.
const (
	MsgBusy         = "Unggahan lain sedang diproses. Tunggu hingga selesai."
	MsgMissingKey   = "Kunci API belum dikonfigurasi. Set GEMINI_API_KEY atau jalankan `rab setup`."
	MsgUnsupported  = "Jenis file tidak didukung. Unggah file Excel (.xlsx atau .xls)."
	MsgTooLarge     = "Ukuran file melebihi batas 10 MB."
	MsgUnreadable   = "Gagal membaca data file. File mungkin kosong atau rusak."
	MsgMissingField = "Uraian, volume dan satuan wajib diisi."
	MsgExtraction   = "Gagal mem-parsing file Excel dengan AI. File mungkin rusak atau format konten RAB tidak dikenali."
)

// UserMessage returns the single descriptive message for err.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return MsgBusy
	case errors.Is(err, extract.ErrMissingAPIKey):
		return MsgMissingKey
	case errors.Is(err, model.ErrMissingField):
		return MsgMissingField
	case errors.Is(err, ingest.ErrUnsupportedType):
		return MsgUnsupported
	case errors.Is(err, ingest.ErrTooLarge):
		return MsgTooLarge
	case errors.Is(err, ingest.ErrUnreadable):
		return MsgUnreadable
	default:
		return MsgExtraction
	}
}
