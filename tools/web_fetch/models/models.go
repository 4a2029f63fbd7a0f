package models

type Result struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTMLHash string `json:"html_hash"`
	Success  bool   `json:"success"`
	Status   int    `json:"status"`
	RenderMS int    `json:"render_ms"`
}
