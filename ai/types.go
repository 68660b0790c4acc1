package ai

// ApplianceTypes defines the appliance categories a query analyzer may assign.
// Queries about other appliances are out of scope for the catalog.
var ApplianceTypes = []string{
	"dishwasher",
	"refrigerator",
}

// Brands defines the appliance brands a query analyzer recognizes.
// Brand values are canonically lowercase throughout the system.
var Brands = []string{
	"bosch",
	"electrolux",
	"frigidaire",
	"ge",
	"kitchenaid",
	"lg",
	"maytag",
	"samsung",
	"thermador",
	"whirlpool",
}

// PartTypes defines the part categories a query analyzer may assign.
// These match the part_type metadata values used by the seeded catalog.
var PartTypes = []string{
	"compressor",
	"condenser",
	"door_handle",
	"evaporator",
	"motor",
	"seal",
	"shelf",
	"spray_arm",
	"thermostat",
	"water_dispenser",
}
