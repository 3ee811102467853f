package models

// Tip is an entry of the static tips collection used for tip posts
type Tip struct {
	Topic    string   `yaml:"topic" json:"topic"`
	Category Category `yaml:"category" json:"category"`
	Content  string   `yaml:"content" json:"content"`
}
