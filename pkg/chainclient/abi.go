package chainclient

// ABI surface of the SimpleMarketplace contract. Listing/buying is done by
// wallets on the frontend; the backend only reads state and watches events.
const marketplaceABI = `[
	{"type":"function","name":"getItem","stateMutability":"view","inputs":[{"name":"itemId","type":"uint256"}],"outputs":[{"name":"seller","type":"address"},{"name":"name","type":"string"},{"name":"description","type":"string"},{"name":"price","type":"uint256"},{"name":"isForSale","type":"bool"}]},
	{"type":"function","name":"getItemsForSale","stateMutability":"view","inputs":[],"outputs":[{"name":"itemIds","type":"uint256[]"}]},
	{"type":"event","name":"ItemListed","anonymous":false,"inputs":[{"name":"itemId","type":"uint256","indexed":true},{"name":"seller","type":"address","indexed":false},{"name":"name","type":"string","indexed":false},{"name":"price","type":"uint256","indexed":false}]},
	{"type":"event","name":"ItemSold","anonymous":false,"inputs":[{"name":"itemId","type":"uint256","indexed":true},{"name":"seller","type":"address","indexed":false},{"name":"buyer","type":"address","indexed":false},{"name":"price","type":"uint256","indexed":false}]}
]`
