package catalog

import (
	"bitbucket.org/mmdatafocus/transfer_console/models"
)

// SelectProduct appends a new line to the named destination, pre-filled
// from the chosen catalog product with quantity 1. This is the only path
// that stamps a CatalogProductId onto a line.
func SelectProduct(w models.AllocationWorkspace, destinationId string, product CatalogProduct) (models.AllocationWorkspace, error) {
	item := models.NewLineItem()
	item.Sku = product.Sku
	item.ProductName = product.Name
	item.Quantity = 1
	item.UnitPrice = product.CostPrice
	item.CatalogProductId = product.ID
	return w.AddLine(destinationId, item)
}
