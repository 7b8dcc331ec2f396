package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("ticket_types")

		collection.Fields.Add(
			&core.TextField{Name: "name", Required: true},
			&core.TextField{Name: "performance", Required: true},
			&core.NumberField{Name: "price", Required: true},
			&core.NumberField{Name: "available", OnlyInt: true},
			&core.SelectField{
				Name:      "status",
				MaxSelect: 1,
				Values:    []string{"available", "soldout", "unavailable"},
			},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("ticket_types")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
