// Package domain models the inputs and outputs of the wind farm yield model.
//
// # Features
//
// The model consumes a fixed, ordered list of numeric features collected from
// a human operator. The form knows how to collect a wider catalog than the
// model needs; anything outside the required list is dropped before the
// model is called.
//
// Time features:
//
//	year    2019–2030  number input (collected, not used by the shipped model)
//	month   1–12       slider
//	day     1–31       slider
//	hour    0–23       slider, 24-hour clock
//	minute  0, 15, 30, 45  selector; source data is sampled every 15 minutes
//
// Weather features, read from the met mast next to the turbines:
//
//	wind_speed_70m, wind_speed_50m, wind_speed_30m, wind_speed_10m   m/s, ≥ 0
//	temperature   °C,  -20–50
//	pressure      hPa, 800–1100
//	humidity      %,   0–100
//
// Weather controls are only shown for features the required list includes, so
// temperature, pressure and humidity stay hidden for the shipped model.
//
// # Required Order
//
// [FeatureSpec] is the ordered list of feature keys the model was trained on.
// [FeatureSpec.Order] turns an [InputRecord] into the exact column vector the
// model expects. The default order is:
//
//	month, day, hour, minute, wind_speed_70m, wind_speed_50m, wind_speed_30m, wind_speed_10m
//
// # Output
//
// The model predicts total energy (kWh) generated over the next 15 minutes.
// A regressor can return small negative values near the cut-in wind speed;
// yield is physically non-negative, so [ClampYield] floors the raw output at
// zero. Results are displayed with four decimal places.
package domain
