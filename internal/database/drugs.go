package database

import (
	"iter"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/dreamware/medrec/internal/list"
	"github.com/dreamware/medrec/internal/trie"
)

// SearchStats describes the shape of the drug index
type SearchStats struct {
	Nodes  int
	Height int
}

// Inventory summarizes the drug stock
type Inventory struct {
	Count         int
	TotalQuantity uint64
	Cheapest      Drug
	MostExpensive Drug
}

// InsertDrug adds d to the drug index and rebalances it. Both the id and the
// name must be unused.
func (db *Database) InsertDrug(d Drug) error {
	if d.Name == "" {
		return db.reject(errors.Wrap(ErrInvalid, "drug name is empty"))
	}
	if _, ok := db.drugs.Get(Drug{ID: d.ID}); ok {
		return db.reject(errors.Wrapf(ErrAlreadyExists, "drug id %d", d.ID))
	}
	if _, ok := db.findDrugByName(d.Name); ok {
		return db.reject(errors.Wrapf(ErrAlreadyExists, "drug %q", d.Name))
	}
	db.drugs.Insert(d)
	db.drugs.Balance()
	db.wrote()
	return nil
}

// NextDrugID returns one more than the largest id in use, or 1 when the
// index is empty.
func (db *Database) NextDrugID() uint32 {
	last, ok := db.drugs.Max()
	if !ok {
		return 1
	}
	return last.ID + 1
}

// GetDrugByID looks a drug up by id in O(height). The id must not be changed
// through the returned pointer.
func (db *Database) GetDrugByID(id uint32) (*Drug, bool) {
	db.read()
	return db.drugs.Get(Drug{ID: id})
}

// GetDrugByName looks a drug up by exact name. The index is ordered by id,
// so this scans every drug.
func (db *Database) GetDrugByName(name string) (*Drug, bool) {
	db.read()
	return db.findDrugByName(name)
}

func (db *Database) findDrugByName(name string) (*Drug, bool) {
	return db.drugs.Find(func(d Drug) bool { return d.Name == name })
}

// Drugs yields every drug in id order
func (db *Database) Drugs() iter.Seq[Drug] {
	return db.drugs.All()
}

// RemoveDrug deletes drug id and drops it from every group.
func (db *Database) RemoveDrug(id uint32) bool {
	if !db.drugs.Remove(Drug{ID: id}) {
		return false
	}
	for g := range db.drugGroups.Pointers() {
		list.Remove(g.Drugs, id)
	}
	db.wrote()
	return true
}

// RestockDrug adds quantity to the named drug and returns the new stock.
func (db *Database) RestockDrug(name string, quantity uint32) (uint32, error) {
	d, ok := db.findDrugByName(name)
	if !ok {
		return 0, db.reject(errors.Wrapf(ErrNotFound, "drug %q", name))
	}
	d.Quantity += quantity
	db.wrote()
	return d.Quantity, nil
}

// WithdrawDrug takes quantity out of stock and returns what remains. A drug
// whose stock reaches zero is removed from the index.
func (db *Database) WithdrawDrug(name string, quantity uint32) (uint32, error) {
	d, ok := db.findDrugByName(name)
	if !ok {
		return 0, db.reject(errors.Wrapf(ErrNotFound, "drug %q", name))
	}
	if quantity > d.Quantity {
		return d.Quantity, db.reject(errors.Wrapf(ErrInsufficientStock, "%q has %d, asked %d", name, d.Quantity, quantity))
	}
	d.Quantity -= quantity
	db.wrote()
	// d may point at a different drug once its node is spliced out
	remaining, id := d.Quantity, d.ID
	if remaining == 0 {
		db.RemoveDrug(id)
		log.WithFields(log.Fields{"drug": name, "id": id}).Info("drug out of stock, removed")
	}
	return remaining, nil
}

// DrugsInPriceRange returns drugs priced within [lo, hi], in id order
func (db *Database) DrugsInPriceRange(lo, hi float64) []Drug {
	db.read()
	var out []Drug
	for d := range db.drugs.All() {
		if d.Price >= lo && d.Price <= hi {
			out = append(out, d)
		}
	}
	return out
}

// SuggestDrugs returns, sorted, the lowercased names of drugs starting with
// prefix. Names that are not plain letters are left out of the suggestions.
func (db *Database) SuggestDrugs(prefix string) []string {
	db.read()
	names := trie.New()
	for d := range db.drugs.All() {
		if err := names.Insert(strings.ToLower(d.Name)); err != nil {
			log.WithField("drug", d.Name).WithError(err).Debug("not suggestible")
		}
	}
	out := names.AutoComplete(strings.ToLower(prefix)).Slice()
	slices.Sort(out)
	return out
}

// Inventory totals the stock and finds the price extremes. The second result
// is false when there are no drugs.
func (db *Database) Inventory() (Inventory, bool) {
	var inv Inventory
	for d := range db.drugs.All() {
		if inv.Count == 0 || d.Price < inv.Cheapest.Price {
			inv.Cheapest = d
		}
		if inv.Count == 0 || d.Price > inv.MostExpensive.Price {
			inv.MostExpensive = d
		}
		inv.Count++
		inv.TotalQuantity += uint64(d.Quantity)
	}
	return inv, inv.Count > 0
}

// SearchStats reports the node count and height of the drug index
func (db *Database) SearchStats() SearchStats {
	return SearchStats{Nodes: db.drugs.Len(), Height: db.drugs.Height()}
}

// Drug groups

// InsertDrugGroup adds g. Every id it lists must name a stocked drug and
// appear once.
func (db *Database) InsertDrugGroup(g DrugGroup) error {
	if _, ok := db.drugGroups.GetByUniqAttr(g.Name); ok {
		return db.reject(errors.Wrapf(ErrAlreadyExists, "drug group %q", g.Name))
	}
	if g.Drugs == nil {
		g.Drugs = list.New[uint32]()
	}
	seen := make(map[uint32]bool, g.Drugs.Len())
	for id := range g.Drugs.All() {
		if _, ok := db.drugs.Get(Drug{ID: id}); !ok {
			return db.reject(errors.Wrapf(ErrNotFound, "drug id %d", id))
		}
		if seen[id] {
			return db.reject(errors.Wrapf(ErrAlreadyExists, "drug id %d in group %q", id, g.Name))
		}
		seen[id] = true
	}
	db.drugGroups.PushFront(g)
	db.wrote()
	return nil
}

// GetDrugGroup returns the group called name
func (db *Database) GetDrugGroup(name string) (*DrugGroup, bool) {
	db.read()
	return db.drugGroups.GetByUniqAttr(name)
}

// DrugGroups yields every group
func (db *Database) DrugGroups() iter.Seq[DrugGroup] {
	return db.drugGroups.All()
}

// RemoveDrugGroup drops the group and reports whether it existed
func (db *Database) RemoveDrugGroup(name string) bool {
	if !db.drugGroups.RemoveByUniqAttr(name) {
		return false
	}
	db.wrote()
	return true
}

// AddDrugToGroup adds the named drug to group. A drug is listed once.
func (db *Database) AddDrugToGroup(group, drugName string) error {
	g, ok := db.drugGroups.GetByUniqAttr(group)
	if !ok {
		return db.reject(errors.Wrapf(ErrNotFound, "drug group %q", group))
	}
	d, ok := db.findDrugByName(drugName)
	if !ok {
		return db.reject(errors.Wrapf(ErrNotFound, "drug %q", drugName))
	}
	if list.Contains(g.Drugs, d.ID) {
		return db.reject(errors.Wrapf(ErrAlreadyExists, "drug %q in group %q", drugName, group))
	}
	g.Drugs.PushFront(d.ID)
	db.wrote()
	return nil
}

// GroupDrugs resolves the group's ids to drugs, in group order
func (db *Database) GroupDrugs(group string) ([]Drug, error) {
	g, ok := db.drugGroups.GetByUniqAttr(group)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "drug group %q", group)
	}
	var out []Drug
	for id := range g.Drugs.All() {
		if d, ok := db.drugs.Get(Drug{ID: id}); ok {
			out = append(out, *d)
		}
	}
	return out, nil
}
