package model

// Totals holds the column sums over a collection.
type Totals struct {
	Labor    float64 `json:"totalUpah" yaml:"totalUpah"`
	Material float64 `json:"totalBahan" yaml:"totalBahan"`
	Grand    float64 `json:"totalBiaya" yaml:"totalBiaya"`
}

// Row is a numbered display row with its derived amounts.
type Row struct {
	No             int      `json:"no" yaml:"no"`
	Item           LineItem `json:"item" yaml:"item"`
	LaborAmount    float64  `json:"jumlahUpah" yaml:"jumlahUpah"`
	MaterialAmount float64  `json:"jumlahBahan" yaml:"jumlahBahan"`
	Total          float64  `json:"jumlahHarga" yaml:"jumlahHarga"`
}

// Summary is the read model every surface renders.
type Summary struct {
	Count  int    `json:"count" yaml:"count"`
	Rows   []Row  `json:"rows" yaml:"rows"`
	Totals Totals `json:"totals" yaml:"totals"`
}
