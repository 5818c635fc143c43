package dimensions

// ReservedTermCode is the canonical code of the reserved term type
const ReservedTermCode = "Reserved"

// Default returns the AWS vocabulary price shards are partitioned by.
// Region codes are the price list "location" values.
func Default() *Set {
	return &Set{
		Regions: MustMap(Region,
			Entry{"us-east-1", "US East (N. Virginia)"},
			Entry{"us-east-2", "US East (Ohio)"},
			Entry{"us-west-1", "US West (N. California)"},
			Entry{"us-west-2", "US West (Oregon)"},
			Entry{"ca-central-1", "Canada (Central)"},
			Entry{"eu-west-1", "EU (Ireland)"},
			Entry{"eu-west-2", "EU (London)"},
			Entry{"eu-west-3", "EU (Paris)"},
			Entry{"eu-central-1", "EU (Frankfurt)"},
			Entry{"eu-north-1", "EU (Stockholm)"},
			Entry{"ap-northeast-1", "Asia Pacific (Tokyo)"},
			Entry{"ap-northeast-2", "Asia Pacific (Seoul)"},
			Entry{"ap-southeast-1", "Asia Pacific (Singapore)"},
			Entry{"ap-southeast-2", "Asia Pacific (Sydney)"},
			Entry{"ap-south-1", "Asia Pacific (Mumbai)"},
			Entry{"sa-east-1", "South America (Sao Paulo)"},
			Entry{"us-gov-west-1", "AWS GovCloud (US)"},
		),
		Terms: MustMap(Term,
			Entry{"on-demand", "OnDemand"},
			Entry{"reserved", ReservedTermCode},
		),
		OfferingClasses: MustMap(OfferingClass,
			Entry{"standard", "standard"},
			Entry{"convertible", "convertible"},
		),
		Tenancies: MustMap(Tenancy,
			Entry{"shared", "Shared"},
			Entry{"dedicated", "Dedicated"},
			Entry{"host", "Host"},
		),
		PurchaseOptions: MustMap(PurchaseOption,
			Entry{"no-upfront", "No Upfront"},
			Entry{"partial-upfront", "Partial Upfront"},
			Entry{"all-upfront", "All Upfront"},
		),
		ProductFamilies: []string{
			"Compute Instance",
			"Data Transfer",
			"Dedicated Host",
			"Fee",
			"IP Address",
			"Load Balancer",
			"Load Balancer-Application",
			"Load Balancer-Network",
			"NAT Gateway",
			"Storage",
			"Storage Snapshot",
			"System Operation",
		},
		ReservedTerm: ReservedTermCode,
	}
}
