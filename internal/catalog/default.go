package catalog

var defaultItems = []MenuItem{
	{ID: "w1", Code: "(01)", Name: "麥香魚", NameEN: "Filet-O-Fish", Category: CategoryWestern, Kind: KindMain},
	{ID: "w2", Code: "(02)", Name: "豬肉滿福堡", NameEN: "Pork McMuffin", Category: CategoryWestern, Kind: KindMain},
	{ID: "w3", Code: "(03)", Name: "番茄嫩蛋焙果堡", NameEN: "Bagel Burger with Cheese", Category: CategoryWestern, Kind: KindMain},
	{ID: "w4", Code: "(04)", Name: "現烤焙果+乳酪起司抹醬及草莓醬", NameEN: "Bagel (incl. Butter & Strawberry Jam)", Category: CategoryWestern, Kind: KindMain},

	{ID: "wa", Code: "(A)", Name: "冰檸檬紅茶", NameEN: "Iced Tea", Category: CategoryWestern, Kind: KindDrink},
	{ID: "wb", Code: "(B)", Name: "冰咖啡", NameEN: "Americano(Iced)", Category: CategoryWestern, Kind: KindDrink},
	{ID: "wc", Code: "(C)", Name: "柳橙汁", NameEN: "Orange Juice", Category: CategoryWestern, Kind: KindDrink},

	{ID: "c6", Code: "(06)", Name: "里肌肉飯糰", NameEN: "Rice Ball with Pork", Category: CategoryChinese, Kind: KindMain},
	{ID: "c7", Code: "(07)", Name: "燒餅油條", NameEN: "Baked Wheat Cake with Fried Bread Stick", Category: CategoryChinese, Kind: KindMain},
	{ID: "c8", Code: "(08)", Name: "蘿蔔糕+蛋", NameEN: "Turnip Cake with Fried Egg", Category: CategoryChinese, Kind: KindMain},
	{ID: "c9", Code: "(09)", Name: "小籠包", NameEN: "Dumplings with Pork", Category: CategoryChinese, Kind: KindMain},
	{ID: "c10", Code: "(10)", Name: "素飯糰", NameEN: "Vegetarian Rice Ball", Category: CategoryChinese, Kind: KindMain},
	{ID: "c11", Code: "(11)", Name: "饅頭夾蔥蛋", NameEN: "Steamed Bread with Green Onions&Egg", Category: CategoryChinese, Kind: KindMain},
	{ID: "c12", Code: "(12)", Name: "起司蛋餅", NameEN: "Cheese Egg Cake", Category: CategoryChinese, Kind: KindMain},
	{ID: "c13", Code: "(13)", Name: "燒餅蔥爆豬", NameEN: "Baked Wheat Cake with Fried Pork", Category: CategoryChinese, Kind: KindMain},

	{ID: "ce", Code: "(E)", Name: "冰豆漿", NameEN: "Iced Soybean Milk", Category: CategoryChinese, Kind: KindDrink, HasSugarOption: true},
	{ID: "cf", Code: "(F)", Name: "冰米漿", NameEN: "Iced Rice & Peanut Milk", Category: CategoryChinese, Kind: KindDrink},
	{ID: "cg", Code: "(G)", Name: "熱豆漿", NameEN: "Hot Soybean Milk", Category: CategoryChinese, Kind: KindDrink, HasSugarOption: true},
	{ID: "ch", Code: "(H)", Name: "熱米漿", NameEN: "Hot Rice & Peanut Milk", Category: CategoryChinese, Kind: KindDrink},
}

// NT$ per serving, Chinese partner only.
var defaultPrices = map[string]int{
	"c6":        70,
	"c10":       45,
	"c7":        50,
	"c13":       70,
	"c8":        65,
	"c9":        100,
	"c11":       35,
	"c12":       50,
	"ce":        35,
	"cf":        35,
	"cg":        35,
	"ch":        35,
	"ice_clear": 35,
	"hot_clear": 35,
}

var defaultSplits = []SugarSplit{
	{DrinkID: "ce", LineID: "ice_clear", Label: "冰清"},
	{DrinkID: "cg", LineID: "hot_clear", Label: "熱清"},
}

var (
	defaultBillingMains  = []string{"c6", "c10", "c7", "c13", "c8", "c9", "c11", "c12"}
	defaultBillingDrinks = []string{"ce", "cf", "cg", "ch"}
)

// Default is the hotel's breakfast menu.
func Default() *Menu {
	return NewMenu(defaultItems, defaultPrices, defaultSplits, defaultBillingMains, defaultBillingDrinks)
}
