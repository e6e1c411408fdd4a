/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

const definitionSchema = `
{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "definitions": {
        "filter": {
            "type": "object",
            "properties": {
                "type": { "type": "string" },
                "format": { "type": "string" },
                "pattern": { "type": "string" },
                "minimum": { "type": "number" },
                "maximum": { "type": "number" },
                "minLength": { "type": "integer" },
                "maxLength": { "type": "integer" },
                "exclusiveMinimum": { "type": "number" },
                "exclusiveMaximum": { "type": "number" },
                "const": { "type": ["number", "string", "boolean"] },
                "enum": {
                    "type": "array",
                    "items": { "type": ["number", "string", "boolean"] }
                },
                "contains": { "$ref": "#/definitions/filter" },
                "not": { "$ref": "#/definitions/filter" }
            },
            "additionalProperties": false
        },
        "submission_requirements": {
            "type": "object",
            "oneOf": [
                {
                    "properties": {
                        "name": { "type": "string" },
                        "purpose": { "type": "string" },
                        "rule": { "type": "string", "enum": ["all", "pick"] },
                        "count": { "type": "integer", "minimum": 1 },
                        "min": { "type": "integer", "minimum": 0 },
                        "max": { "type": "integer", "minimum": 0 },
                        "from": { "type": "string" }
                    },
                    "required": ["rule", "from"],
                    "additionalProperties": false
                },
                {
                    "properties": {
                        "name": { "type": "string" },
                        "purpose": { "type": "string" },
                        "rule": { "type": "string", "enum": ["all", "pick"] },
                        "count": { "type": "integer", "minimum": 1 },
                        "min": { "type": "integer", "minimum": 0 },
                        "max": { "type": "integer", "minimum": 0 },
                        "from_nested": {
                            "type": "array",
                            "minItems": 1,
                            "items": { "$ref": "#/definitions/submission_requirements" }
                        }
                    },
                    "required": ["rule", "from_nested"],
                    "additionalProperties": false
                }
            ]
        },
        "input_descriptors": {
            "type": "object",
            "properties": {
                "id": { "type": "string", "minLength": 1 },
                "name": { "type": "string" },
                "purpose": { "type": "string" },
                "group": {
                    "type": "array",
                    "items": { "type": "string" }
                },
                "constraints": {
                    "type": "object",
                    "properties": {
                        "fields": {
                            "type": "array",
                            "items": { "$ref": "#/definitions/field" }
                        }
                    },
                    "additionalProperties": false
                }
            },
            "required": ["id", "constraints"],
            "additionalProperties": false
        },
        "field": {
            "type": "object",
            "properties": {
                "id": { "type": "string" },
                "name": { "type": "string" },
                "path": {
                    "type": "array",
                    "minItems": 1,
                    "items": { "type": "string" }
                },
                "purpose": { "type": "string" },
                "optional": { "type": "boolean" },
                "filter": { "$ref": "#/definitions/filter" },
                "predicate": { "type": "string", "enum": ["required", "preferred"] }
            },
            "required": ["path"],
            "dependencies": { "predicate": ["filter"] },
            "additionalProperties": false
        }
    },
    "type": "object",
    "properties": {
        "presentation_definition": {
            "type": "object",
            "properties": {
                "id": { "type": "string", "minLength": 1 },
                "name": { "type": "string" },
                "purpose": { "type": "string" },
                "submission_requirements": {
                    "type": "array",
                    "items": { "$ref": "#/definitions/submission_requirements" }
                },
                "input_descriptors": {
                    "type": "array",
                    "minItems": 1,
                    "items": { "$ref": "#/definitions/input_descriptors" }
                }
            },
            "required": ["id", "input_descriptors"],
            "additionalProperties": false
        }
    }
}`
