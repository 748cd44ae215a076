package models

// CookingMethodID identifies a row of the cooking-methods table.
type CookingMethodID int

// CookingMethod is a preparation technique dishes refer to by id.
type CookingMethod struct {
	ID          CookingMethodID `json:"id"`
	Name        LocalizedText   `json:"name"`
	Description LocalizedText   `json:"description,omitempty"`
	ResearchIDs []int           `json:"research_ids"`
}

// ResearchID identifies a row of the research-data table.
type ResearchID int

// ResearchReference locates the source of a research entry.
type ResearchReference struct {
	Title   string `json:"title"`
	Link    string `json:"link,omitempty"`
	Authors string `json:"authors,omitempty"`
	Journal string `json:"journal,omitempty"`
	Year    string `json:"year,omitempty"`
	DOI     string `json:"doi,omitempty"`
}

// Research is a cited source that ingredients and cooking methods link to
// through their research_ids.
type Research struct {
	ID            ResearchID        `json:"id"`
	ReferenceData ResearchReference `json:"reference_data"`
	Summary       LocalizedText     `json:"summary,omitempty"`
}

// HasResearch reports whether id is among ids.
func HasResearch(ids []int, id ResearchID) bool {
	for _, v := range ids {
		if v == int(id) {
			return true
		}
	}
	return false
}
