package resource

// Wiring is one physical connector an output's full reconfiguration may
// rebind. Wiring objects are registered once at device bring-up and
// resolved by ID at commit time.
type Wiring struct {
	id ID

	Name string
	// Connected tracks link presence. Registered wiring starts connected;
	// hotplug handling may clear it, after which drivers refuse to bind the
	// connector.
	Connected bool
}

func (w *Wiring) ID() ID { return w.id }
