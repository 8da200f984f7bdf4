// Package resource shapes models into the JSON the API returns.
//
// A transformer is a plain function from a model to a Map:
//
//	func productJSON(p models.Product) resource.Map {
//	    return resource.Map{"id": p.ID, "name": p.Name}
//	}
//
//	response.Success(w, resource.One(product, productJSON))
//	response.Paginated(w, resource.Many(products, productJSON), pagination)
package resource

// Map is the output of a transformer.
type Map = map[string]interface{}

// Transformer converts one model into its API shape.
type Transformer[T any] func(T) Map

// One transforms a single value.
func One[T any](v T, fn Transformer[T]) Map {
	return fn(v)
}

// Many transforms every item. A nil slice yields an empty list so clients
// always get a JSON array.
func Many[T any](items []T, fn Transformer[T]) []Map {
	out := make([]Map, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}

// When includes key only if cond holds.
func When(m Map, cond bool, key string, value interface{}) Map {
	if cond {
		m[key] = value
	}
	return m
}
