package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"assistance_back_end/internal/database"
	"assistance_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const claimsIndex = "claims"

//
// --- INDEXATION DANS ELASTICSEARCH ---
//

// IndexClaim indexe une réclamation pour la recherche plein texte du
// dashboard admin. Best-effort : une panne Elastic ne bloque pas le flow.
func IndexClaim(r models.RefundRequest) {
	if database.Elastic == nil {
		return
	}

	data, _ := json.Marshal(r)
	req := esapi.IndexRequest{
		Index:      claimsIndex,
		DocumentID: r.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour la réclamation %s: %s", r.ID, res.String())
	}
}

//
// --- RECHERCHE DANS ELASTICSEARCH ---
//

// SearchClaims recherche dans les transcripts et raisons des réclamations
// d'un tenant.
func SearchClaims(companyID, query string) ([]map[string]interface{}, error) {
	if database.Elastic == nil {
		return nil, errors.New("recherche indisponible")
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"user_transcript", "ai_analysis_json.reason", "status"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{
						"company_id.keyword": companyID,
					},
				},
			},
		},
	}

	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %v", err)
	}

	req := esapi.SearchRequest{
		Index: []string{claimsIndex},
		Body:  &buf,
	}
	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		json.NewDecoder(res.Body).Decode(&e)
		log.Printf("❌ Elasticsearch erreur: %+v", e)
		return nil, errors.New("index non trouvé ou vide")
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %v", err)
	}

	hitsData, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("réponse Elastic invalide (pas de hits)")
	}

	hitsArray, ok := hitsData["hits"].([]interface{})
	if !ok {
		return []map[string]interface{}{}, nil
	}

	results := make([]map[string]interface{}, 0, len(hitsArray))
	for _, hit := range hitsArray {
		hitMap, _ := hit.(map[string]interface{})
		if source, ok := hitMap["_source"].(map[string]interface{}); ok {
			results = append(results, source)
		}
	}

	return results, nil
}
