package aggregate

import "breakfast-order-service/internal/catalog"

type BillingLine struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Code      string `json:"code"`
	Count     int    `json:"count"`
	UnitPrice int    `json:"unitPrice"`
	Subtotal  int    `json:"subtotal"`
	Virtual   bool   `json:"virtual,omitempty"`
}

type Billing struct {
	Mains      []BillingLine `json:"mains"`
	Drinks     []BillingLine `json:"drinks"`
	GrandTotal int           `json:"grandTotal"`
}

// Bill prices the kitchen tally. A sugar-optional drink with a configured
// split is listed as its sweetened remainder followed by a virtual line for
// the unsweetened servings; both use the split line's price, falling back
// to the drink's.
func Bill(menu *catalog.Menu, k Kitchen) Billing {
	var b Billing
	for _, id := range menu.BillingMains() {
		line, ok := itemLine(menu, id, k.Count(id))
		if !ok {
			continue
		}
		b.Mains = append(b.Mains, line)
		b.GrandTotal += line.Subtotal
	}

	for _, id := range menu.BillingDrinks() {
		split, hasSplit := menu.SplitFor(id)
		if !hasSplit {
			line, ok := itemLine(menu, id, k.Count(id))
			if !ok {
				continue
			}
			b.Drinks = append(b.Drinks, line)
			b.GrandTotal += line.Subtotal
			continue
		}

		line, ok := itemLine(menu, id, k.Sweetened(id))
		if !ok {
			continue
		}
		price := line.UnitPrice
		if p, ok := menu.Price(split.LineID); ok {
			price = p
		}
		unsweet := BillingLine{
			ID:        split.LineID,
			Label:     split.Label,
			Code:      line.Code,
			Count:     k.NoSugar[id],
			UnitPrice: price,
			Virtual:   true,
		}
		unsweet.Subtotal = unsweet.Count * unsweet.UnitPrice
		b.Drinks = append(b.Drinks, line, unsweet)
		b.GrandTotal += line.Subtotal + unsweet.Subtotal
	}
	return b
}

func itemLine(menu *catalog.Menu, id string, count int) (BillingLine, bool) {
	item, ok := menu.Lookup(id)
	if !ok {
		return BillingLine{}, false
	}
	price, ok := menu.Price(id)
	if !ok {
		return BillingLine{}, false
	}
	return BillingLine{
		ID:        id,
		Label:     item.Name,
		Code:      item.Code,
		Count:     count,
		UnitPrice: price,
		Subtotal:  count * price,
	}, true
}
