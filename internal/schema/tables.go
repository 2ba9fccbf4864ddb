package schema

// CSS3.0 null values.
const (
	NullTime    = -9999999999.999
	NullEndTime = 9999999999.999
)

func str(name string, width int) Field {
	return Field{Name: name, Kind: String, Width: width, Null: "-"}
}

func integer(name string, width int, null int64) Field {
	return Field{Name: name, Kind: Int, Width: width, Null: null}
}

func num(name string, width, prec int, null float64) Field {
	return Field{Name: name, Kind: Float, Width: width, Precision: prec, Null: null}
}

func epoch(name string, null float64) Field {
	return Field{Name: name, Kind: Time, Width: 17, Precision: 5, Null: null}
}

func lddate() Field { return epoch("lddate", NullTime) }

func init() {
	register(Table{
		Name:       "wfdisc",
		PrimaryKey: []string{"sta", "chan", "time::endtime"},
		Fields: []Field{
			str("sta", 6),
			str("chan", 8),
			epoch("time", NullTime),
			integer("wfid", 8, -1),
			integer("chanid", 8, -1),
			integer("jdate", 8, -1),
			epoch("endtime", NullEndTime),
			integer("nsamp", 8, -1),
			num("samprate", 11, 7, -1),
			num("calib", 16, 6, 0),
			num("calper", 16, 6, -1),
			str("instype", 6),
			str("segtype", 1),
			str("datatype", 2),
			str("clip", 1),
			str("dir", 64),
			str("dfile", 32),
			integer("foff", 10, 0),
			integer("commid", 8, -1),
			lddate(),
		},
	})

	register(Table{
		Name:       "site",
		PrimaryKey: []string{"sta", "ondate::offdate"},
		Fields: []Field{
			str("sta", 6),
			integer("ondate", 8, -1),
			integer("offdate", 8, -1),
			num("lat", 9, 4, -999),
			num("lon", 9, 4, -999),
			num("elev", 9, 4, -999),
			str("staname", 50),
			str("statype", 4),
			str("refsta", 6),
			num("dnorth", 9, 4, 0),
			num("deast", 9, 4, 0),
			lddate(),
		},
	})

	register(Table{
		Name:       "sitechan",
		PrimaryKey: []string{"sta", "chan", "ondate::offdate"},
		Fields: []Field{
			str("sta", 6),
			str("chan", 8),
			integer("ondate", 8, -1),
			integer("chanid", 8, -1),
			integer("offdate", 8, -1),
			str("ctype", 4),
			num("edepth", 9, 4, -999),
			num("hang", 6, 1, -999),
			num("vang", 6, 1, -999),
			str("descrip", 50),
			lddate(),
		},
	})

	register(Table{
		Name:       "arrival",
		PrimaryKey: []string{"sta", "time"},
		Fields: []Field{
			str("sta", 6),
			epoch("time", NullTime),
			integer("arid", 8, -1),
			integer("jdate", 8, -1),
			integer("stassid", 8, -1),
			integer("chanid", 8, -1),
			str("chan", 8),
			str("iphase", 8),
			str("stype", 1),
			num("deltim", 6, 3, -1),
			num("azimuth", 7, 2, -1),
			num("delaz", 7, 2, -1),
			num("slow", 7, 2, -1),
			num("delslo", 7, 2, -1),
			num("ema", 7, 2, -1),
			num("rect", 7, 3, -1),
			num("amp", 10, 1, -1),
			num("per", 7, 2, -1),
			num("logat", 7, 2, -999),
			str("clip", 1),
			str("fm", 2),
			num("snr", 10, 2, -1),
			str("qual", 1),
			str("auth", 15),
			integer("commid", 8, -1),
			lddate(),
		},
	})

	register(Table{
		Name:       "origin",
		PrimaryKey: []string{"time", "lat", "lon", "depth"},
		Fields: []Field{
			num("lat", 9, 4, -999),
			num("lon", 9, 4, -999),
			num("depth", 9, 4, -999),
			epoch("time", NullTime),
			integer("orid", 8, -1),
			integer("evid", 8, -1),
			integer("jdate", 8, -1),
			integer("nass", 4, -1),
			integer("ndef", 4, -1),
			integer("ndp", 4, -1),
			integer("grn", 8, -1),
			integer("srn", 8, -1),
			str("etype", 2),
			str("review", 4),
			num("depdp", 9, 4, -999),
			str("dtype", 1),
			num("mb", 7, 2, -999),
			integer("mbid", 8, -1),
			num("ms", 7, 2, -999),
			integer("msid", 8, -1),
			num("ml", 7, 2, -999),
			integer("mlid", 8, -1),
			str("algorithm", 15),
			str("auth", 15),
			integer("commid", 8, -1),
			lddate(),
		},
	})

	register(Table{
		Name:       "event",
		PrimaryKey: []string{"evid"},
		Fields: []Field{
			integer("evid", 8, -1),
			str("evname", 32),
			integer("prefor", 8, -1),
			str("auth", 15),
			integer("commid", 8, -1),
			lddate(),
		},
	})

	register(Table{
		Name:       "assoc",
		PrimaryKey: []string{"arid", "orid"},
		Fields: []Field{
			integer("arid", 8, -1),
			integer("orid", 8, -1),
			str("sta", 6),
			str("phase", 8),
			num("belief", 4, 2, 9.99),
			num("delta", 8, 3, -1),
			num("seaz", 7, 2, -999),
			num("esaz", 7, 2, -999),
			num("timeres", 8, 3, -999),
			str("timedef", 1),
			num("azres", 7, 1, -999),
			str("azdef", 1),
			num("slores", 7, 2, -999),
			str("slodef", 1),
			num("emares", 7, 1, -999),
			num("wgt", 6, 3, -1),
			str("vmodel", 15),
			integer("commid", 8, -1),
			lddate(),
		},
	})
}
