package orders

import (
	"encoding/json"
	"fmt"
	"ywbilling/entity"
)

func marshalItems(items []*entity.OrderItem) (string, error) {
	if items == nil {
		items = []*entity.OrderItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}
	return string(data), nil
}
