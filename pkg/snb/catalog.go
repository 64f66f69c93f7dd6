// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package snb holds the LDBC SNB type catalog and dataset file discovery.
//
// The catalog maps each entity to its vertex label and id-space tag (the
// small integer that keeps identifier ranges of different entity types
// apart) and each relation to its tail/head entities, edge label, and
// directedness. Discovery matches the data generator's file naming scheme
// against a directory and produces the ordered work list the loader
// partitions.
package snb

import "fmt"

// Entity is one SNB entity type.
type Entity struct {
	// Name is the file name component used by the data generator, e.g.
	// "person" in person_0_0.csv.
	Name string

	// IDSpace tags this entity's composite identifiers.
	IDSpace uint64

	// Label is the vertex label stored in the graph.
	Label string
}

// Relation is one SNB relation type. Relation files are named
// tail_name_head_*.csv by the data generator.
type Relation struct {
	Tail     *Entity
	Head     *Entity
	Name     string
	Directed bool
}

// String renders the relation in pattern form, e.g. (person)-[knows]-(person).
func (r *Relation) String() string {
	if r.Directed {
		return fmt.Sprintf("(%s)-[%s]->(%s)", r.Tail.Name, r.Name, r.Head.Name)
	}
	return fmt.Sprintf("(%s)-[%s]-(%s)", r.Tail.Name, r.Name, r.Head.Name)
}

// PropertySet is one entity-property file family: extra multi-valued
// properties shipped by the generator in their own files, e.g.
// person_email_emailaddress_0_0.csv.
type PropertySet struct {
	Entity *Entity

	// FileStem is the full file name component before the numeric
	// suffixes.
	FileStem string
}

// Entities is the SNB entity catalog, in catalog (and thus discovery)
// order. Id-space tags are fixed: changing them would orphan every
// identifier already loaded.
var (
	Comment      = &Entity{Name: "comment", IDSpace: 1, Label: "Comment"}
	Forum        = &Entity{Name: "forum", IDSpace: 2, Label: "Forum"}
	Organisation = &Entity{Name: "organisation", IDSpace: 3, Label: "Organisation"}
	Person       = &Entity{Name: "person", IDSpace: 4, Label: "Person"}
	Place        = &Entity{Name: "place", IDSpace: 5, Label: "Place"}
	Post         = &Entity{Name: "post", IDSpace: 6, Label: "Post"}
	Tag          = &Entity{Name: "tag", IDSpace: 7, Label: "Tag"}
	TagClass     = &Entity{Name: "tagclass", IDSpace: 8, Label: "TagClass"}
)

// Entities lists every entity in catalog order.
var Entities = []*Entity{
	Comment, Forum, Organisation, Person, Place, Post, Tag, TagClass,
}

// Relations lists every relation in catalog order. knows is the only
// undirected relation in the schema; the loader materializes it in both
// directions.
var Relations = []*Relation{
	{Tail: Comment, Head: Person, Name: "hasCreator", Directed: true},
	{Tail: Comment, Head: Tag, Name: "hasTag", Directed: true},
	{Tail: Comment, Head: Place, Name: "isLocatedIn", Directed: true},
	{Tail: Comment, Head: Comment, Name: "replyOf", Directed: true},
	{Tail: Comment, Head: Post, Name: "replyOf", Directed: true},
	{Tail: Forum, Head: Post, Name: "containerOf", Directed: true},
	{Tail: Forum, Head: Person, Name: "hasMember", Directed: true},
	{Tail: Forum, Head: Person, Name: "hasModerator", Directed: true},
	{Tail: Forum, Head: Tag, Name: "hasTag", Directed: true},
	{Tail: Organisation, Head: Place, Name: "isLocatedIn", Directed: true},
	{Tail: Person, Head: Tag, Name: "hasInterest", Directed: true},
	{Tail: Person, Head: Place, Name: "isLocatedIn", Directed: true},
	{Tail: Person, Head: Person, Name: "knows", Directed: false},
	{Tail: Person, Head: Comment, Name: "likes", Directed: true},
	{Tail: Person, Head: Post, Name: "likes", Directed: true},
	{Tail: Person, Head: Organisation, Name: "studyAt", Directed: true},
	{Tail: Person, Head: Organisation, Name: "workAt", Directed: true},
	{Tail: Place, Head: Place, Name: "isPartOf", Directed: true},
	{Tail: Post, Head: Person, Name: "hasCreator", Directed: true},
	{Tail: Post, Head: Tag, Name: "hasTag", Directed: true},
	{Tail: Post, Head: Place, Name: "isLocatedIn", Directed: true},
	{Tail: Tag, Head: TagClass, Name: "hasType", Directed: true},
	{Tail: TagClass, Head: TagClass, Name: "isSubclassOf", Directed: true},
}

// PropertySets lists the entity-property file families shipped separately
// by the generator.
var PropertySets = []*PropertySet{
	{Entity: Person, FileStem: "person_email_emailaddress"},
	{Entity: Person, FileStem: "person_speaks_language"},
}
