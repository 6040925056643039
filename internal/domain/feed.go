package domain

import "encoding/xml"

// RSS представляет корневой элемент документа RSS 2.0.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel Channel  `xml:"channel"`
}

// Channel содержит метаданные ленты и элементы в порядке их появления на странице.
type Channel struct {
	Title         string `xml:"title"`
	Link          string `xml:"link"`
	Description   string `xml:"description"`
	LastBuildDate string `xml:"lastBuildDate"`
	Items         []Item `xml:"item"`
}

// Item представляет один элемент <item> RSS-ленты.
type Item struct {
	XMLName     xml.Name `xml:"item"`
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description CDATA    `xml:"description"`
	PubDate     string   `xml:"pubDate"`
}

// CDATA оборачивает текст в секцию CDATA при маршалинге.
// encoding/xml сам разбивает последовательность "]]>" на две секции.
type CDATA struct {
	Text string `xml:",cdata"`
}
