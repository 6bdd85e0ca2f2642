// Package catalog holds the static product list and the shop filter.
package catalog

import models "storefront/model"

const (
	CategoryMen   = "men's perfume"
	CategoryWomen = "women's perfume"
)

var categories = []string{CategoryMen, CategoryWomen}

var products = []models.Product{
	{ID: 1, Title: "Dior Sauvage Eau de Toilette", Price: 120, Brand: "Dior", Category: CategoryMen, InStock: true,
		Description: "A fresh and bold fragrance with bergamot, pepper, and ambroxan notes. Perfect for modern men.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.31262.jpg", Rating: models.Rating{Rate: 4.8, Count: 540}},
	{ID: 2, Title: "Bleu de Chanel Eau de Parfum", Price: 150, Brand: "Chanel", Category: CategoryMen, InStock: true,
		Description: "An elegant woody aromatic scent with grapefruit, incense, and sandalwood.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.10813.jpg", Rating: models.Rating{Rate: 4.9, Count: 620}},
	{ID: 3, Title: "Acqua di Gio by Giorgio Armani", Price: 110, Brand: "Giorgio Armani", Category: CategoryMen, InStock: true,
		Description: "Classic aquatic fragrance with citrus, jasmine, and patchouli. Timeless choice for men.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.4.jpg", Rating: models.Rating{Rate: 4.7, Count: 700}},
	{ID: 4, Title: "Versace Eros Eau de Toilette", Price: 95, Brand: "Versace", Category: CategoryMen, InStock: true, Discount: 10,
		Description: "A sweet yet fresh fragrance with mint, green apple, and tonka bean.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.17302.jpg", Rating: models.Rating{Rate: 4.6, Count: 430}},
	{ID: 5, Title: "Tom Ford Noir Extreme", Price: 180, Brand: "Tom Ford", Category: CategoryMen, InStock: false,
		Description: "Warm and spicy with cardamom, amber, and vanilla. A bold, luxurious scent.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.25332.jpg", Rating: models.Rating{Rate: 4.5, Count: 310}},
	{ID: 6, Title: "Y Eau de Parfum by YSL", Price: 135, Brand: "YSL", Category: CategoryMen, InStock: true,
		Description: "Fresh notes of bergamot and sage with deep woody accords. Masculine yet refined.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.49493.jpg", Rating: models.Rating{Rate: 4.6, Count: 500}},
	{ID: 7, Title: "Spicebomb by Viktor & Rolf", Price: 125, Brand: "Viktor & Rolf", Category: CategoryMen, InStock: true,
		Description: "Explosive mix of spices, cinnamon, and leather. Perfect winter fragrance.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.14145.jpg", Rating: models.Rating{Rate: 4.4, Count: 380}},
	{ID: 8, Title: "Paco Rabanne Invictus", Price: 105, Brand: "Paco Rabanne", Category: CategoryMen, InStock: true, Discount: 15,
		Description: "Fresh and sporty with grapefruit, jasmine, and oakmoss. Youthful energy in a bottle.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.17936.jpg", Rating: models.Rating{Rate: 4.3, Count: 460}},
	{ID: 9, Title: "Creed Aventus", Price: 350, Brand: "Creed", Category: CategoryMen, InStock: true,
		Description: "Luxury niche fragrance with pineapple, birch, and musk. A true icon for men.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.9828.jpg", Rating: models.Rating{Rate: 4.9, Count: 250}},
	{ID: 10, Title: "Jean Paul Gaultier Le Male", Price: 95, Brand: "Jean Paul Gaultier", Category: CategoryMen, InStock: true,
		Description: "A timeless scent with mint, lavender, and vanilla. Seductive and comforting.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.23.jpg", Rating: models.Rating{Rate: 4.5, Count: 420}},

	{ID: 11, Title: "Chanel No. 5 Eau de Parfum", Price: 160, Brand: "Chanel", Category: CategoryWomen, InStock: true,
		Description: "The iconic floral aldehyde fragrance with jasmine, rose, and sandalwood.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.1.jpg", Rating: models.Rating{Rate: 4.8, Count: 800}},
	{ID: 12, Title: "Lancôme La Vie Est Belle", Price: 130, Brand: "Lancôme", Category: CategoryWomen, InStock: true, Discount: 20,
		Description: "Sweet and floral with iris, praline, and vanilla. Feminine and radiant.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.13896.jpg", Rating: models.Rating{Rate: 4.7, Count: 680}},
	{ID: 13, Title: "Dior J’adore Eau de Parfum", Price: 150, Brand: "Dior", Category: CategoryWomen, InStock: true,
		Description: "Elegant floral fragrance with ylang-ylang, jasmine, and rose. Luxurious femininity.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.118.jpg", Rating: models.Rating{Rate: 4.9, Count: 720}},
	{ID: 14, Title: "YSL Black Opium", Price: 140, Brand: "YSL", Category: CategoryWomen, InStock: true,
		Description: "Addictive blend of coffee, vanilla, and white flowers. Bold and glamorous.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.25862.jpg", Rating: models.Rating{Rate: 4.6, Count: 550}},
	{ID: 15, Title: "Marc Jacobs Daisy", Price: 100, Brand: "Marc Jacobs", Category: CategoryWomen, InStock: true,
		Description: "Fresh and youthful with violet, strawberry, and gardenia. A playful everyday scent.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.10027.jpg", Rating: models.Rating{Rate: 4.4, Count: 470}},
	{ID: 16, Title: "Gucci Bloom Eau de Parfum", Price: 135, Brand: "Gucci", Category: CategoryWomen, InStock: false,
		Description: "Floral explosion with jasmine, tuberose, and Rangoon creeper. Modern and romantic.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.43364.jpg", Rating: models.Rating{Rate: 4.5, Count: 510}},
	{ID: 17, Title: "Viktor & Rolf Flowerbomb", Price: 145, Brand: "Viktor & Rolf", Category: CategoryWomen, InStock: true,
		Description: "Rich floral bouquet with tea, orchid, and musk. Captivating and intense.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.10022.jpg", Rating: models.Rating{Rate: 4.7, Count: 600}},
	{ID: 18, Title: "Armani My Way", Price: 120, Brand: "Giorgio Armani", Category: CategoryWomen, InStock: true,
		Description: "Floral yet fresh with orange blossom, tuberose, and vanilla. A journey of femininity.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.60361.jpg", Rating: models.Rating{Rate: 4.3, Count: 350}},
	{ID: 19, Title: "Carolina Herrera Good Girl", Price: 140, Brand: "Carolina Herrera", Category: CategoryWomen, InStock: true,
		Description: "Sweet and sexy with jasmine, tonka bean, and cocoa. Empowering fragrance for women.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.42837.jpg", Rating: models.Rating{Rate: 4.6, Count: 580}},
	{ID: 20, Title: "Dolce & Gabbana Light Blue", Price: 115, Brand: "Dolce & Gabbana", Category: CategoryWomen, InStock: true, Discount: 10,
		Description: "Refreshing citrus floral with lemon, apple, and cedarwood. Perfect summer fragrance.",
		Image:       "https://fimgs.net/mdimg/perfume/375x500.31.jpg", Rating: models.Rating{Rate: 4.5, Count: 490}},
}

// Products returns a copy of the catalog in catalog order.
func Products() []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	return out
}

// Categories returns the fixed category list.
func Categories() []string {
	return append([]string(nil), categories...)
}

// Brands returns the distinct brands in first-seen catalog order.
func Brands() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range products {
		if p.Brand == "" || seen[p.Brand] {
			continue
		}
		seen[p.Brand] = true
		out = append(out, p.Brand)
	}
	return out
}

// Related returns up to n other products for a product page, in catalog
// order. The product itself is never included.
func Related(id int64, n int) []models.Product {
	out := make([]models.Product, 0, n)
	for _, p := range products {
		if len(out) == n {
			break
		}
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// ByID looks a product up in the catalog.
func ByID(id int64) (models.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}
