// Package mold maps content nodes onto typed Go structs.
//
// A Node is a unit of semi-structured content: an id, a type alias and a bag
// of named raw values. An Engine converts a node into an instance of a target
// type by running every field through an ordered chain of processors, then
// coercing the result into the field's type.
//
// # Basic Usage
//
//	type Page struct {
//	    Title    string
//	    Summary  string          `mold:"property:summary,excerpt;trim"`
//	    Greeting string          `mold:"dictionary:greeting"`
//	    Hero     *Image          `mold:"property:hero"`
//	    Related  mold.Lazy[[]*Page]
//	}
//
//	engine, _ := mold.New(mold.WithDictionary(dict))
//	page, err := mold.As[*Page](ctx, engine, node)
//
// # Processor Chains
//
// Each field is resolved by folding the node through, in order:
//
//   - the processors named in its mold tag, sorted by "@order", or the
//     default processor when the tag names none
//   - processors supplied by the field type (ProcessorProvider)
//   - processors supplied by the element type of sequence fields
//   - global processors registered for the field type
//   - the post-processors: Markup, Sequence, Recursive, TryConvert
//
// Processors share state through the call's Chain: ContextFor returns one
// instance per context type for the root conversion and all of its nested
// conversions.
//
// # Tag Syntax
//
//	mold:"name[@order][:arg,...];..."
//
// Built-in processors: property, inherit, dictionary, node, default, mask,
// hash, upper, lower, title, trim, split, markup, sequence, recursive, tryconvert.
// Reserved tokens: "-" (ignore), lazy, cache[:ttl], converter:name.
//
// # Lazy Fields
//
// Fields declared as Lazy[T] are resolved on first Get and at most once.
// Errors raised while resolving surface from Get.
//
// # Caching
//
// Model types implementing Cacheable are cached whole, keyed by node id,
// type and culture. Fields tagged cache are cached individually. Entries
// expire by TTL; errors are never cached.
//
// # Conversion Handlers
//
// Handlers run before and after population: type-level handlers
// (HandlerProvider), registry handlers, the model's own OnConverting and
// OnConverted methods, then per-call callbacks. A converting handler may
// return a replacement node, which is used for the rest of the call.
//
// # Documents
//
// DecodeNode builds node trees from JSON, YAML, MessagePack or BSON
// documents through the codecs in the json, yaml, msgpack and bson
// subpackages.
package mold
