package simulator

import "fmt"

// Item is a unit of work flowing through the line.
type Item struct {
	ID int `json:"id"`
}

func (it Item) String() string {
	return fmt.Sprintf("Item(%d)", it.ID)
}

// inProcessItem pairs an admitted item with the tick its processing started.
type inProcessItem struct {
	item      Item
	startedAt int
}
