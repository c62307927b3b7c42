package model

// Reference data served by the surrounding platform. The scheduler reads
// these to populate pickers and to copy lead contact fields into a new
// appointment; it never writes them.

type Lead struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type Condominium struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type Unit struct {
	ID              string `json:"id"`
	CondominiumID   string `json:"condominiumId"`
	CondominiumName string `json:"condominiumName,omitempty"`
	Number          string `json:"number"`
	Active          bool   `json:"active"`
}
