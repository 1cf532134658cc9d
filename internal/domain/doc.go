// Package domain models rp5.ru weather-archive exports and the wind rose
// built from them.
//
// # Data Source
//
// Users download a station archive from https://rp5.ru as a CSV file and
// upload it to the chat bot. The chat gateway publishes each upload or
// command as JSON to the Kafka source topic; replies go back on the sink
// topic.
//
// # Export Conventions
//
// File layout:
//
//	6 metadata lines ("# Метеостанция ...", selection period, units, ...)
//	1 column header line, semicolon separated, fields quoted
//	N data rows, one per observation, trailing ";" on every line
//
// The first header cell names the local time zone and station, e.g.
// "Местное время в Калининграде (аэропорт)". Dropping the first two words
// gives the label shown in the diagram title ("в Калининграде (аэропорт)").
//
// Wind columns:
//
//	DD  free-text direction in Russian genitive case,
//	    e.g. "Ветер, дующий с северо-северо-востока".
//	    "Штиль, безветрие" marks calm, "Переменное направление" variable wind.
//	Ff  mean speed at 10-12 m, metres per second, e.g. "3".
//
// Malformed rows (field count different from the header, speed that is not
// a number) are skipped one by one and only reduce the sample size.
//
// # Wind Rose
//
// Directions are binned into 8 sectors of 45° centred on N, NE, E, SE, S,
// SW, W and NW, speeds into 6 bands between the sample minimum and maximum.
// Cell values are percentages of all observations with a known direction.
// The calm share in the title is counted over every row, including rows
// whose direction could not be resolved.
package domain
