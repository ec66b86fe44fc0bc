package cache

import (
	"context"
	"encoding/json"
	"time"

	"assistance_back_end/internal/database"
	"assistance_back_end/internal/models"
	"assistance_back_end/internal/store"
)

const CompanyCacheTTL = 5 * time.Minute

// GetCompanyByTagline récupère un tenant depuis Redis ou le store. Le tagline
// est résolu à chaque chargement de widget, d'où le cache.
func GetCompanyByTagline(ctx context.Context, s store.Store, tagline string) (*models.Company, error) {
	key := "company:tagline:" + tagline

	// 1. Essayer le cache Redis
	if database.Redis != nil {
		data, err := database.Redis.Get(ctx, key).Result()
		if err == nil {
			var company models.Company
			if json.Unmarshal([]byte(data), &company) == nil {
				return &company, nil
			}
		}
	}

	// 2. Récupérer du store
	company, err := s.CompanyByTagline(ctx, tagline)
	if err != nil {
		return nil, err
	}

	// 3. Mettre en cache
	if database.Redis != nil {
		jsonData, _ := json.Marshal(company)
		database.Redis.Set(ctx, key, jsonData, CompanyCacheTTL)
	}

	return company, nil
}

// InvalidateCompanyCache invalide le cache d'un tenant (changement de
// politique de retour notamment).
func InvalidateCompanyCache(tagline string) {
	if database.Redis == nil {
		return
	}
	database.Redis.Del(context.Background(), "company:tagline:"+tagline)
}
