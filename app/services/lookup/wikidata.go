package lookup

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/http"
)

const (
	WikidataName     = "wikidata"
	WikidataEndpoint = "https://query.wikidata.org/sparql"
)

var qidRE = regexp.MustCompile(`^Q[1-9][0-9]*$`)

// NormalizeQID upper-cases a Wikidata item id and returns "" when it is not
// of the form Q<digits>.
func NormalizeQID(s string) string {
	id := strings.ToUpper(strings.TrimSpace(s))
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	if !qidRE.MatchString(id) {
		return ""
	}
	return id
}

// Wikidata looks products up through the public SPARQL endpoint. Items
// are matched on their GTIN (P3962); brand comes from P1716 and the image
// from P18.
type Wikidata struct {
	Endpoint string
	Language string
	Timeout  time.Duration
}

func NewWikidata() *Wikidata {
	return &Wikidata{Endpoint: WikidataEndpoint, Language: "en", Timeout: 15 * time.Second}
}

func (c *Wikidata) Name() string { return WikidataName }

const wikidataSelect = `SELECT ?item ?itemLabel ?itemDescription ?brandLabel ?image ?gtin WHERE {
  %s
  OPTIONAL { ?item wdt:P3962 ?gtin . }
  OPTIONAL { ?item wdt:P1716 ?brand . }
  OPTIONAL { ?item wdt:P18 ?image . }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "%s,en". }
}
LIMIT %d`

func (c *Wikidata) Lookup(ctx context.Context, barcode string) (*Result, error) {
	code := NormalizeBarcode(barcode)
	if code == "" {
		return nil, nil
	}

	return rememberPoint(ctx, WikidataName, "lookup", cacheKey(WikidataName, "lookup", code), func() (*Result, error) {
		candidates := []string{code}
		if len(code) < 14 {
			candidates = append(candidates, strings.Repeat("0", 14-len(code))+code)
		}
		quoted := make([]string, len(candidates))
		for i, cand := range candidates {
			quoted[i] = sparqlString(cand)
		}
		where := fmt.Sprintf("VALUES ?code { %s }\n  ?item wdt:P3962 ?code .", strings.Join(quoted, " "))

		items, err := c.query(ctx, fmt.Sprintf(wikidataSelect, where, c.lang(), 5))
		if err != nil || len(items) == 0 {
			return nil, err
		}
		res := items[0]
		res.Barcode = code
		return &res, nil
	})
}

// LookupExternal fetches one item by QID.
func (c *Wikidata) LookupExternal(ctx context.Context, externalID string) (*Result, error) {
	qid := NormalizeQID(externalID)
	if qid == "" {
		return nil, nil
	}

	return rememberPoint(ctx, WikidataName, "external", cacheKey(WikidataName, "external", qid), func() (*Result, error) {
		where := fmt.Sprintf("VALUES ?item { wd:%s }", qid)
		items, err := c.query(ctx, fmt.Sprintf(wikidataSelect, where, c.lang(), 5))
		if err != nil || len(items) == 0 {
			return nil, err
		}
		return &items[0], nil
	})
}

func (c *Wikidata) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	q := normalizeQuery(query)
	if q == "" {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	key := cacheKey(WikidataName, "search", strconv.Itoa(limit), q)
	return rememberSearch(ctx, WikidataName, key, func() ([]Result, error) {
		where := fmt.Sprintf(`?item rdfs:label ?label .
  FILTER(LANG(?label) = "%s")
  FILTER(CONTAINS(LCASE(?label), %s))
  { ?item wdt:P3962 [] . } UNION { ?item wdt:P1716 [] . }`, c.lang(), sparqlString(q))

		// Rows repeat per image/brand; over-fetch then group by item.
		items, err := c.query(ctx, fmt.Sprintf(wikidataSelect, where, c.lang(), limit*3))
		if err != nil {
			return nil, err
		}
		return truncate(items, limit), nil
	})
}

type sparqlValue struct {
	Value string `json:"value"`
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

// query runs a SELECT and folds the rows into one Result per item, in
// first-seen order.
func (c *Wikidata) query(ctx context.Context, sparql string) ([]Result, error) {
	resp, err := http.Get(c.Endpoint).
		Query("query", sparql).
		Query("format", "json").
		Header("Accept", "application/sparql-results+json").
		WithContext(ctx).
		Timeout(c.Timeout).
		Retry(2, 500*time.Millisecond).
		Send()
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", WikidataName, err, ErrUpstream)
	}
	if !resp.OK() {
		return nil, statusError(WikidataName, resp.StatusCode, resp.Raw)
	}

	var payload sparqlResponse
	if err := resp.JSON(&payload); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", WikidataName, err, ErrUpstream)
	}

	var out []Result
	index := map[string]int{}
	for _, row := range payload.Results.Bindings {
		qid := NormalizeQID(row["item"].Value)
		if qid == "" {
			continue
		}
		i, seen := index[qid]
		if !seen {
			label := row["itemLabel"].Value
			if label == qid {
				label = "" // the label service echoes the id when no label exists
			}
			out = append(out, Result{
				Name:        label,
				Description: row["itemDescription"].Value,
				Source:      WikidataName,
				ExternalID:  qid,
			})
			i = len(out) - 1
			index[qid] = i
		}

		r := &out[i]
		if r.Barcode == "" {
			r.Barcode = NormalizeBarcode(row["gtin"].Value)
		}
		if r.Brand == "" {
			r.Brand = row["brandLabel"].Value
		}
		if img := commonsURL(row["image"].Value); img != "" && !contains(r.Images, img) {
			r.Images = append(r.Images, img)
		}
	}
	return out, nil
}

func (c *Wikidata) lang() string {
	if c.Language == "" {
		return "en"
	}
	return c.Language
}

// commonsURL forces https on Special:FilePath links returned for P18.
func commonsURL(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	return strings.Replace(v, "http://", "https://", 1)
}

// sparqlString quotes s as a SPARQL string literal.
func sparqlString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "\r", " ")
	return `"` + r.Replace(s) + `"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
