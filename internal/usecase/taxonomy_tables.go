package usecase

import "regexp"

// DefaultTaxonomyTables returns the built-in brand, category and keyword tables
func DefaultTaxonomyTables() TaxonomyTables {
	return TaxonomyTables{
		Brands:              knownBrands,
		BrandStopWords:      brandStopWords,
		Categories:          defaultCategoryRules(),
		NonPurchasableTerms: nonPurchasableTerms,
		MaterialStopWords:   materialStopWords,
	}
}

// knownBrands are matched as whole words; multi-word entries are fine
var knownBrands = []string{
	// Home & kitchen
	"Yankee Candle", "Bath and Body Works", "Bath & Body Works", "Le Creuset",
	"Lodge", "KitchenAid", "Cuisinart", "Ninja", "Instant Pot", "Vitamix",
	"Breville", "Nespresso", "Keurig", "Chemex", "Hario", "Bodum",
	"OXO", "Weber", "Traeger", "Stanley", "YETI", "Hydro Flask", "Contigo",
	"Ember", "Dyson", "Philips", "Brooklinen", "Parachute", "Barefoot Dreams",
	// Tools & outdoors
	"DEWALT", "Milwaukee", "Makita", "Bosch", "Craftsman", "Black+Decker",
	"Leatherman", "Gerber", "Victorinox", "Swiss Army", "Zippo", "Coleman",
	"Osprey", "Patagonia", "The North Face", "North Face", "Carhartt",
	"Columbia", "REI", "Solo Stove", "BioLite",
	// Tech
	"Bose", "Sony", "JBL", "Anker", "Logitech", "Samsung", "Kindle",
	"Garmin", "Fitbit", "Theragun", "Polaroid", "Fujifilm", "Instax", "Kodak",
	"Nintendo", "PlayStation", "Xbox", "Raspberry Pi",
	// Fashion & beauty
	"Nike", "Adidas", "New Balance", "UGG", "Levi's", "Kate Spade", "Fossil",
	"Timex", "Pandora", "Alex and Ani", "Burt's Bees", "L'Occitane", "Aesop",
	"Glossier", "Sephora", "Fjallraven", "Herschel", "Bombas", "Smartwool",
	// Toys, games, books
	"LEGO", "Funko", "Hasbro", "Mattel", "Ravensburger", "Melissa & Doug",
	"Crayola", "Moleskine", "Leuchtturm1917", "Exploding Kittens",
	"Cards Against Humanity", "Catan", "Harry Potter", "Star Wars", "Marvel",
	"Disney", "Pokemon",
}

// brandStopWords are generic openers that are never a brand
var brandStopWords = []string{
	"the", "a", "an", "new", "vintage", "set", "premium", "official", "personalized",
	"personalised", "custom", "customized", "handmade", "hand", "funny", "cute", "best",
	"gift", "gifts", "unique", "large", "small", "mini", "men's", "mens", "women's",
	"womens", "kids", "kid's", "baby", "christmas", "birthday", "for", "with", "my",
	"our", "your", "original", "classic", "deluxe", "luxury", "organic", "natural",
	"pack", "lot", "authentic", "genuine", "rare", "retro", "cool", "cozy", "soft",
	"ceramic", "wooden", "wood", "leather", "cotton", "stainless", "glass", "metal",
	"silver", "gold", "sterling", "rustic", "modern", "minimalist", "pair", "box",
	"i", "mom", "dad", "grandma", "grandpa", "teacher", "coffee", "tea", "dog", "cat",
}

// defaultCategoryRules is ordered; earlier rules win on overlap ("tumbler" is a mug)
func defaultCategoryRules() []CategoryRule {
	rule := func(name, pattern string) CategoryRule {
		return CategoryRule{Name: name, Pattern: regexp.MustCompile(pattern)}
	}
	return []CategoryRule{
		rule("candle", `\bcandles?\b|\bwax melts?\b`),
		rule("mug", `\b(?:mugs?|tumblers?|travel cups?|coffee cups?)\b`),
		rule("t-shirt", `\b(?:t-?shirts?|tees?|tshirts?)\b`),
		rule("poster", `\b(?:posters?|wall art|art prints?|canvas prints?|wall decor)\b`),
		rule("book", `\b(?:books?|novels?|paperback|hardcover|cookbooks?)\b`),
		rule("jewelry", `\b(?:jewelry|jewellery|necklaces?|bracelets?|earrings?|rings?|pendants?|charms?)\b`),
		rule("hat", `\b(?:hats?|caps?|beanies?)\b`),
		rule("blanket", `\b(?:blankets?|throws?)\b`),
		rule("puzzle", `\b(?:jigsaw|puzzles?)\b`),
		rule("game", `\b(?:board games?|card games?|party games?|tabletop games?)\b`),
		rule("socks", `\bsocks?\b`),
		rule("bag", `\b(?:bags?|totes?|backpacks?|duffels?)\b`),
		rule("keychain", `\b(?:keychains?|key chains?|key fobs?)\b`),
		rule("sticker", `\b(?:stickers?|decals?)\b`),
		rule("ornament", `\bornaments?\b`),
		rule("pillow", `\b(?:pillows?|cushions?|pillowcases?)\b`),
		rule("coaster", `\bcoasters?\b`),
		rule("magnet", `\b(?:magnets?|fridge magnets?)\b`),
		rule("phone case", `\b(?:phone cases?|iphone cases?|cases? for iphone|galaxy cases?)\b`),
		rule("wallet", `\b(?:wallets?|card holders?|money clips?)\b`),
	}
}

// nonPurchasableTerms mark material items that cannot be bought as a product
var nonPurchasableTerms = []string{
	"playlist", "mixtape", "letter", "diy", "handwritten", "hand-written",
	"custom collage", "homemade", "home-made", "poem", "coupon book",
	"printable", "home-cooked", "reservation",
}

// materialStopWords never count towards a material/product word overlap
var materialStopWords = []string{
	"a", "an", "the", "and", "or", "of", "in", "on", "at", "to", "for", "with",
	"by", "from", "your", "their", "some", "any", "few", "couple", "pair",
	"gift", "gifts", "set", "kit", "item", "items", "pack", "bundle", "supplies",
	"one", "two", "new", "good", "nice", "quality", "small", "large", "favorite",
}
