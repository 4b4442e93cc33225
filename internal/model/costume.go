package model

type Costume struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Costumes is the shop catalog, cheapest first.
var Costumes = []Costume{
	{ID: "cowboy", Name: "Cowboy", Price: 50},
	{ID: "pirate", Name: "Pirate", Price: 200},
	{ID: "robot", Name: "Robot", Price: 500},
}

func CostumeByID(id string) (Costume, bool) {
	for _, c := range Costumes {
		if c.ID == id {
			return c, true
		}
	}
	return Costume{}, false
}
