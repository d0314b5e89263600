package cart

// groupByShop partitions items (already sorted by updated_at DESC) into
// per-shop groups. First-seen order is kept, so groups come out ordered by
// their most recent cart activity.
func groupByShop(items []ItemDetail, shopIDs []int64) []ShopGroup {
	byShop := make(map[int64]int)
	var groups []ShopGroup
	for i, it := range items {
		shopID := shopIDs[i]
		idx, ok := byShop[shopID]
		if !ok {
			idx = len(groups)
			byShop[shopID] = idx
			groups = append(groups, ShopGroup{ShopID: shopID})
		}
		groups[idx].Items = append(groups[idx].Items, it)
	}
	return groups
}

func paginateGroups(groups []ShopGroup, page, limit int) []ShopGroup {
	skip := (page - 1) * limit
	if skip >= len(groups) {
		return nil
	}
	end := skip + limit
	if end > len(groups) {
		end = len(groups)
	}
	return groups[skip:end]
}
