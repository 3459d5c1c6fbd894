package elasticsearch

// DefaultMapping returns the full JSON mapping for a product search index,
// including the autocomplete analyzer, the aggregated search_text field and
// the weighted completion suggester. An operator-supplied mapping file takes
// precedence when configured.
func DefaultMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "autocomplete_analyzer": {
          "type": "custom",
          "tokenizer": "autocomplete_tokenizer",
          "filter": ["lowercase"]
        },
        "autocomplete_search": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase"]
        }
      },
      "tokenizer": {
        "autocomplete_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20,
          "token_chars": ["letter", "digit"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "product_id":     { "type": "long" },
      "external_id":    { "type": "keyword" },
      "sku":            { "type": "keyword" },
      "name":           { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 }, "autocomplete": { "type": "text", "analyzer": "autocomplete_analyzer", "search_analyzer": "autocomplete_search" } } },
      "description":    { "type": "text" },
      "unit":           { "type": "keyword" },
      "min_sale":       { "type": "double" },
      "weight":         { "type": "double" },
      "dimensions":     { "type": "keyword" },
      "brand_name":     { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "series_name":    { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "categories":     { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "category_slugs": { "type": "keyword" },
      "images":         { "type": "keyword", "index": false },
      "base_price":     { "type": "double" },
      "retail_price":   { "type": "double" },
      "price_range":    { "type": "double" },
      "stock_total":    { "type": "integer" },
      "in_stock":       { "type": "boolean" },
      "has_certificate":{ "type": "boolean" },
      "has_manual":     { "type": "boolean" },
      "has_drawing":    { "type": "boolean" },
      "attributes": {
        "type": "nested",
        "properties": {
          "name":  { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
          "value": { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
          "unit":  { "type": "keyword" }
        }
      },
      "search_text": { "type": "text", "analyzer": "standard" },
      "suggest":     { "type": "completion", "analyzer": "simple", "preserve_separators": true, "preserve_position_increments": true, "max_input_length": 50 },
      "created_at":  { "type": "date", "format": "yyyy-MM-dd'T'HH:mm:ss" },
      "updated_at":  { "type": "date", "format": "yyyy-MM-dd'T'HH:mm:ss" }
    }
  }
}`
}
