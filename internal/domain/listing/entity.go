package listing

// NotAvailable marks a field that no extraction strategy could fill.
const NotAvailable = "N/A"

type Record struct {
	Link     string `json:"link" yaml:"link"`
	Address  string `json:"address" yaml:"address"`
	Locality string `json:"locality" yaml:"locality"`
	Price    string `json:"price" yaml:"price"`
	Agent    string `json:"agent" yaml:"agent"`
}

// Blank returns a record with every field set to NotAvailable.
func Blank() Record {
	return Record{
		Link:     NotAvailable,
		Address:  NotAvailable,
		Locality: NotAvailable,
		Price:    NotAvailable,
		Agent:    NotAvailable,
	}
}

func IsAvailable(v string) bool {
	return v != NotAvailable
}

// PageResult is the parse outcome of one fetched result page.
type PageResult struct {
	Records []Record
	Blocked bool

	Title    string
	FinalURL string
}

func (p PageResult) Empty() bool {
	return len(p.Records) == 0
}
