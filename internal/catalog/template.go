package catalog

import (
	"encoding/json"

	"github.com/DavidSBennett/PlayingInThePast/engine"
)

const csvTemplate = `title,source_type,sequence_number,content,date,author,location,significance,image_url,argument,sub_argument
"The Sugar Act of 1764","book",1,"An Act for granting certain Duties in the British Colonies and Plantations in America","April 5, 1764","British Parliament","London, England","First major tax imposed on the American colonies","","A","E"
"Virginia Stamp Act Resolutions","letter",2,"Resolved that the first adventurers and settlers brought with them all the liberties and immunities of Great Britain","May 30, 1765","Patrick Henry","Williamsburg, Virginia","First formal colonial resistance to the Stamp Act","","C","E"
"Boston Tea Party Account","letter",3,"About 7 o'clock this evening came on a number of people proceeded to Griffins wharf","December 16, 1773","George Robert Twelves Hewes","Boston, Massachusetts","Firsthand account of the most famous act of colonial resistance","","B","P"
`

// TemplateCSV returns the downloadable CSV authoring template.
func TemplateCSV() []byte { return []byte(csvTemplate) }

// templateCard is a HistoricalCard without the server-assigned fields, so
// the downloaded template shows only what authors fill in.
type templateCard struct {
	Title          string             `json:"title"`
	SourceType     engine.SourceType  `json:"source_type"`
	SequenceNumber int                `json:"sequence_number"`
	Content        string             `json:"content"`
	Date           string             `json:"date"`
	Author         string             `json:"author"`
	Location       string             `json:"location"`
	Significance   string             `json:"significance"`
	ImageURL       string             `json:"image_url"`
	Argument       engine.Argument    `json:"argument"`
	SubArgument    engine.SubArgument `json:"sub_argument"`
}

// TemplateJSON returns the downloadable JSON authoring template: two example
// cards showing every field.
func TemplateJSON() []byte {
	template := []templateCard{
		{
			Title:          "Example Document Title",
			SourceType:     engine.SourceLetter,
			SequenceNumber: 1,
			Content:        "Brief excerpt or description of the historical document",
			Date:           "Month Year",
			Author:         "Author Name",
			Location:       "City, State/Province",
			Significance:   "Why this document is historically important",
			ImageURL:       "https://example.com/image.jpg",
			Argument:       engine.ArgumentA,
			SubArgument:    engine.SubArgumentE,
		},
		{
			Title:          "Another Document",
			SourceType:     engine.SourceNewspaper,
			SequenceNumber: 2,
			Content:        "Another example of document content",
			Date:           "Month Year",
			Author:         "Author Name",
			Location:       "City, State/Province",
			Significance:   "Historical significance explanation",
			ImageURL:       "https://example.com/image2.jpg",
			Argument:       engine.ArgumentB,
			SubArgument:    engine.SubArgumentP,
		},
	}
	out, _ := json.MarshalIndent(template, "", "  ")
	return out
}
