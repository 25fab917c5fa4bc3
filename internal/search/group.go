package search

import "github.com/ralfiz/bizdesk/internal/model"

// Group объединяет результаты одного типа в порядке выдачи.
type Group struct {
	Type    model.SearchResultType
	Label   string
	Results []model.SearchResult
}

var typeLabels = map[model.SearchResultType]string{
	model.SearchClient:     "Clients",
	model.SearchProject:    "Projects",
	model.SearchInvoice:    "Invoices",
	model.SearchQuote:      "Quotes",
	model.SearchCredential: "Credentials",
}

// GroupByType группирует результаты по типу. Группы идут в порядке первого появления типа,
// порядок результатов внутри группы сохраняется.
func GroupByType(results []model.SearchResult) []Group {
	var groups []Group
	index := make(map[model.SearchResultType]int)

	for _, r := range results {
		i, ok := index[r.Type]
		if !ok {
			label := typeLabels[r.Type]
			if label == "" {
				label = string(r.Type)
			}
			groups = append(groups, Group{Type: r.Type, Label: label})
			i = len(groups) - 1
			index[r.Type] = i
		}
		groups[i].Results = append(groups[i].Results, r)
	}

	return groups
}
