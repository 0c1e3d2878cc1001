package manager

import "sync"

// Event names emitted by the manager. Consumers subscribe by name.
const (
	EventAtlasLoaded     = "atlasloaded"
	EventLanguageChanged = "languagechanged"
	EventPackageChanged  = "packagechanged"
	EventLoadPathChanged = "loadpathchanged"
	EventFileLoading     = "fileloading"
	EventFileLoaded      = "fileloaded"
	EventFileLoadError   = "fileloaderror"
	EventReloaded        = "reloaded"
)

// Event is a lifecycle notification. Detail carries the event's subject:
// a language tag, package name, load path or file id, depending on Name.
type Event struct {
	Name   string
	Detail string
}

// Listener receives events it subscribed to.
type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// observers is an explicit registry mapping event name to an ordered list
// of listeners with stable add/remove.
type observers struct {
	mu     sync.Mutex
	nextID int
	byName map[string][]subscription
}

func newObservers() *observers {
	return &observers{byName: make(map[string][]subscription)}
}

// subscribe registers a listener for an event name and returns an id for
// unsubscribe. Listeners for the same name are invoked in subscription
// order.
func (o *observers) subscribe(name string, fn Listener) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	o.byName[name] = append(o.byName[name], subscription{id: o.nextID, fn: fn})
	return o.nextID
}

// unsubscribe removes a listener by id. Returns false if the id was not
// registered for that name.
func (o *observers) unsubscribe(name string, id int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	subs := o.byName[name]
	for i, sub := range subs {
		if sub.id == id {
			o.byName[name] = append(subs[:i:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

// emit delivers an event to every listener registered for its name.
// Listeners run outside the registry lock so they may subscribe or
// unsubscribe reentrantly.
func (o *observers) emit(ev Event) {
	o.mu.Lock()
	subs := o.byName[ev.Name]
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	o.mu.Unlock()

	for _, sub := range snapshot {
		sub.fn(ev)
	}
}

// clear drops every registered listener.
func (o *observers) clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.byName = make(map[string][]subscription)
}
