package extract

import "encoding/json"

// Schema is the subset of the OpenAPI schema object accepted by
// generationConfig.responseSchema.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType"`
	ResponseSchema   *Schema  `json:"responseSchema,omitempty"`
}

// generateRequest is the body of models/{model}:generateContent.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// generateResponse is the subset of the response we read.
type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// apiError is the error envelope returned on non-2xx responses.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// candidate is one raw line item as returned by the model.
// Fields stay raw so that wrong types and nulls can be tolerated.
type candidate struct {
	Description json.RawMessage `json:"uraian"`
	Volume      json.RawMessage `json:"volume"`
	Unit        json.RawMessage `json:"satuan"`
	Labor       json.RawMessage `json:"hargaUpah"`
	Material    json.RawMessage `json:"hargaBahan"`
}

// itemSchema describes the JSON array the model must return.
var itemSchema = &Schema{
	Type: "ARRAY",
	Items: &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"uraian": {Type: "STRING", Description: "Nama atau deskripsi pekerjaan, misalnya 'Pekerjaan Galian Tanah'."},
			"volume": {Type: "NUMBER", Description: "Kuantitas pekerjaan, hanya angka."},
			"satuan": {Type: "STRING", Description: "Satuan volume, misalnya 'm3', 'm2', 'ls'."},
			"hargaUpah": {Type: "NUMBER", Description: "Harga satuan upah atau tenaga kerja. 0 bila tidak ada."},
			"hargaBahan": {Type: "NUMBER", Description: "Harga satuan bahan atau material. 0 bila tidak ada."},
		},
		Required: []string{"uraian", "volume", "satuan", "hargaUpah", "hargaBahan"},
	},
}
