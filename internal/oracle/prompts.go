package oracle

import (
	"encoding/json"
	"strings"
)

const systemPrompt = `You are a database schema expert. Given a document (PDF page, image, or table),
extract:
1. ENTITIES: main nouns (e.g. Customer, Order, Product) and their key attributes with types.
2. RELATIONSHIPS: how entities relate (e.g. Order has many OrderItems; Customer places Order).
3. NORMALIZATION: suggest 3NF-style tables; avoid redundancy.
4. TABLE_DATA: You MUST extract every row of data visible in the document (e.g. every book in a list, every row in a table). For each entity that has visible rows, list ALL rows in "table_data". Use the exact attribute names from entities as keys (same spelling/casing). Omit "id". Use the same table name as in entities.

Respond with valid JSON only, no markdown, in this exact shape:
{
  "entities": [
    { "name": "EntityName", "attributes": [ {"name": "attr_name", "type": "TEXT|INTEGER|REAL|DATE"} ] }
  ],
  "relationships": [
    { "from": "Entity1", "to": "Entity2", "type": "one-to-many|many-to-many", "fk_in": "Entity2" }
  ],
  "er_description": "Short text description of the ER model for a diagram.",
  "table_data": [
    { "table": "EntityName", "rows": [ {"attr_name": "value", ...}, ... ] }
  ]
}
If the document has no table/list at all, use "table_data": []. Otherwise include every row.`

const userPrompt = `Analyze this document and extract:
1) entities and relationships for a normalized relational schema,
2) ALL visible data rows into table_data (every row of every table/list you see; this is required for the database to be populated).
Return only the JSON object, no other text.`

const rowsSystemPrompt = "You extract tabular/list data from documents. Return only valid JSON."

const rowsPrompt = `Extract every row of data visible in this document (e.g. every book, every line in the list).
Return valid JSON only, no markdown, in this exact shape:
{"table_data": [{"table": "EntityName", "rows": [{"Col1": "value1", "Col2": "value2", ...}, ...]}]}
Use the exact column names: {columns}. Table name: {table}. Include every row you see.`

func rowsPromptFor(table string, columns []string) string {
	cols, _ := json.Marshal(columns)
	return strings.NewReplacer("{columns}", string(cols), "{table}", table).Replace(rowsPrompt)
}

func withContent(prompt, text string) string {
	return prompt + "\n\nDocument content:\n" + text
}
