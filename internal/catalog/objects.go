package catalog

func str(name string) Field   { return Field{Name: name, Type: TypeString} }
func strN(name string) Field  { return Field{Name: name, Type: TypeString, Nullable: true} }
func long(name string) Field  { return Field{Name: name, Type: TypeInteger} }
func longN(name string) Field { return Field{Name: name, Type: TypeInteger, Nullable: true} }
func boolN(name string) Field { return Field{Name: name, Type: TypeBoolean, Nullable: true} }
func ts(name string) Field    { return Field{Name: name, Type: TypeTimestamp} }
func tsN(name string) Field   { return Field{Name: name, Type: TypeTimestamp, Nullable: true} }

// statsMetrics are the counters SendGrid reports for every stats bucket.
func statsMetrics() []Field {
	names := []string{
		"blocks", "bounce_drops", "bounces", "clicks", "deferred", "delivered",
		"invalid_emails", "opens", "processed", "requests", "spam_report_drops",
		"spam_reports", "unique_clicks", "unique_opens", "unsubscribe_drops", "unsubscribes",
	}
	out := make([]Field, 0, len(names))
	for _, n := range names {
		out = append(out, longN(n))
	}
	return out
}

func statsObject(name, path string, segmented bool, optional ...string) ObjectDefinition {
	fields := []Field{str("date")}
	if segmented {
		fields = append(fields, str("name"), strN("type"))
	}
	fields = append(fields, statsMetrics()...)
	return ObjectDefinition{
		Name:              name,
		Category:          Statistic,
		Fields:            fields,
		RequiredArguments: []string{ArgStartDate},
		OptionalArguments: append([]string{ArgEndDate}, optional...),
		Path:              path,
		Shape:             ShapeStats,
	}
}

func suppressionObject(name, path string, extra ...Field) ObjectDefinition {
	return ObjectDefinition{
		Name:              name,
		Category:          Suppression,
		Fields:            append([]Field{ts("created"), str("email")}, extra...),
		OptionalArguments: []string{ArgStartDate, ArgEndDate},
		Path:              path,
		Pagination:        PaginationOffset,
	}
}

func builtin() []ObjectDefinition {
	return []ObjectDefinition{
		{
			Name:     "Contacts",
			Category: MarketingCampaign,
			Fields: []Field{
				str("id"), str("email"), str("first_name"), strN("last_name"),
				strN("address_line_1"), strN("address_line_2"), strN("city"),
				strN("state_province_region"), strN("postal_code"), strN("country"),
				strN("phone_number"), ts("created_at"), ts("updated_at"),
			},
			Path:      "/marketing/contacts",
			ResultKey: "result",
		},
		{
			Name:       "Lists",
			Category:   MarketingCampaign,
			Fields:     []Field{str("id"), str("name"), long("contact_count")},
			Path:       "/marketing/lists",
			ResultKey:  "result",
			Pagination: PaginationMetadataNext,
		},
		{
			Name:     "Segments",
			Category: MarketingCampaign,
			Fields: []Field{
				str("id"), str("name"), long("contacts_count"), strN("parent_list_id"),
				ts("created_at"), ts("updated_at"), tsN("sample_updated_at"),
			},
			Path:      "/marketing/segments",
			ResultKey: "results",
		},
		{
			Name:     "SingleSends",
			Category: MarketingCampaign,
			Fields: []Field{
				str("id"), str("name"), str("status"), boolN("is_abtest"),
				tsN("send_at"), ts("created_at"), ts("updated_at"),
			},
			Path:       "/marketing/singlesends",
			ResultKey:  "result",
			Pagination: PaginationMetadataNext,
		},
		{
			Name:     "Senders",
			Category: MarketingCampaign,
			Fields: []Field{
				long("id"), str("nickname"), strN("address"), strN("city"),
				strN("state"), strN("zip"), strN("country"), boolN("locked"),
				ts("created_at"), ts("updated_at"),
			},
			Path: "/marketing/senders",
		},
		statsObject("GlobalStats", "/stats", false),
		statsObject("CategoryStats", "/categories/stats", true, ArgStatCategories),
		statsObject("MailboxProviderStats", "/mailbox_providers/stats", true),
		statsObject("BrowserStats", "/browsers/stats", true),
		statsObject("DeviceStats", "/devices/stats", true),
		suppressionObject("Bounces", "/suppression/bounces", strN("reason"), strN("status")),
		suppressionObject("Blocks", "/suppression/blocks", strN("reason"), strN("status")),
		suppressionObject("SpamReports", "/suppression/spam_reports", strN("ip")),
		suppressionObject("InvalidEmails", "/suppression/invalid_emails", strN("reason")),
		suppressionObject("GlobalUnsubscribes", "/suppression/unsubscribes"),
	}
}
