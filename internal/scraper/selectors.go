package scraper

// Selectors for the result pages. The site reshuffles class names between
// releases, so most concerns carry an attribute selector plus fallbacks.
const (
	// Listings region; waited on after navigation.
	ListingsRegionSelector = `div[class*='@container']`

	// Card containers, in priority order.
	CardSelector         = `[data-testid="search-result-item"]`
	CardSelectorLoose    = `div[data-testid*="search-result"], li[data-testid*="search-result"]`
	CardSelectorClassSet = `div[class~="@container"][class~="border-b"][class~="pb-3"]`

	// Detail links.
	DetailAnchorSelector    = `a[data-testid="listingDetailsAddress"]`
	DetailAnchorAltSelector = `a[href*="/detail/"]`

	StreetSelector      = `div[class~="flex"][class~="font-semibold"]`
	StreetAltSelector   = `[data-testid="street-name-house-number"], h2`
	LocalitySelector    = `[data-testid="postal-code-city"]`
	LocalityAltSelector = `div[class~="truncate"][class~="text-neutral-80"]`

	PriceSelector    = `[data-testid="result-item-price"]`
	PriceAltSelector = `[class*="price"], p[class~="font-semibold"]`

	AgentContainerSelector = `div[class~="flex"][class~="w-full"][class~="justify-between"]`
)

// Consent overlay buttons, tried in order.
var consentSelectors = []string{
	`#didomi-notice-agree-button`,
	`button[data-testid="accept-all-cookies"]`,
	`button[id*="accept"]`,
}

var consentButtonTexts = []string{
	"Alles accepteren",
	"Accepteren",
	"Akkoord",
	"Accept all",
	"Accept",
}
